/*
Package resilience provides a circuit breaker for unreliable dependencies.

The warden's only external dependency at runtime is the WebDriver
endpoint, and a wedged browser fails slowly: every wire call burns its
full timeout while the command that triggered it holds the session lock.
The breaker turns that slow failure into a fast one.

# Usage

	breaker := resilience.New("webdriver", resilience.Settings{
		MaxRequests: 2,
		Interval:    60 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	result, err := breaker.Execute(func() (interface{}, error) {
		return client.Call()
	})

# States

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                    [failure]
	                                           |
	                                           v
	                                         Open

Closed passes requests through and counts outcomes. Open rejects
immediately with ErrCircuitOpen. Half-Open admits MaxRequests probes;
all must succeed to close the circuit, one failure reopens it.
*/
package resilience
