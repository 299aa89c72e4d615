package webdriver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"github.com/saintfish/chardet"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

// ErrReadyTimeout indicates the page did not become ready within the
// profile's attempt budget.
var ErrReadyTimeout = errors.New("page failed to become ready")

// maxSourceSize caps page source handed to the HTML parsers.
const maxSourceSize = 10 * 1024 * 1024

// awaitReady polls until the document is complete and the profile's
// ready selector matches the page source. Each attempt is separated by
// the probe interval; the budget is attempts * interval.
func (d *driver) awaitReady(ctx context.Context) error {
	probe := d.profile.Ready

	for attempt := 1; attempt <= probe.Attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(probe.Interval()):
			}
		}

		ready, err := d.probeOnce(ctx)
		if err != nil {
			d.log.Debug("Readiness probe attempt failed",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			continue
		}
		if ready {
			return nil
		}
	}

	return fmt.Errorf("%w after %d attempts (%s)", ErrReadyTimeout, probe.Attempts, probe.Budget())
}

// probeOnce checks readyState first, then the selector against the
// current page source.
func (d *driver) probeOnce(ctx context.Context) (bool, error) {
	var state string
	if err := d.client.ExecuteSync(ctx, d.session, "return document.readyState", nil, &state); err != nil {
		return false, err
	}
	if !strings.Contains(state, "complete") {
		return false, nil
	}

	source, err := d.client.PageSource(ctx, d.session)
	if err != nil {
		return false, err
	}
	return matchSelector(source, d.profile.Ready.Selector)
}

// matchSelector reports whether the selector matches the HTML source.
// Selectors starting with "//" are XPath, everything else is CSS. The
// source is decoded to UTF-8 before parsing.
func matchSelector(source, selector string) (bool, error) {
	if source == "" {
		return false, nil
	}
	if len(source) > maxSourceSize {
		return false, fmt.Errorf("page source exceeds %d bytes", maxSourceSize)
	}

	if strings.HasPrefix(selector, "//") {
		node, err := htmlquery.Parse(decodeHTML(source))
		if err != nil {
			return false, fmt.Errorf("failed to parse page source: %w", err)
		}
		found, err := htmlquery.QueryAll(node, selector)
		if err != nil {
			return false, fmt.Errorf("invalid xpath selector %q: %w", selector, err)
		}
		return len(found) > 0, nil
	}

	doc, err := goquery.NewDocumentFromReader(decodeHTML(source))
	if err != nil {
		return false, fmt.Errorf("failed to parse page source: %w", err)
	}
	return doc.Find(selector).Length() > 0, nil
}

// decodeHTML returns a UTF-8 reader for the raw source, detecting the
// charset first and falling back to the source as-is.
func decodeHTML(source string) io.Reader {
	data := []byte(source)

	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(data)
	if err != nil || result == nil {
		return strings.NewReader(source)
	}

	utf8Reader, err := charset.NewReader(bytes.NewReader(data), strings.ToLower(result.Charset))
	if err != nil {
		return strings.NewReader(source)
	}
	return utf8Reader
}
