// Package batch runs one calculation pass over a bond document: decode,
// compute every bond in order, merge the metrics into copies of the input
// records, encode.
package batch

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/seenimoa/bondrisk/internal/analysis/fixedincome"
	"github.com/seenimoa/bondrisk/internal/payload"
)

// ErrCashflowBudget is returned when a batch would project more cashflows
// than the calculator allows.
var ErrCashflowBudget = errors.New("cashflow budget exceeded")

// Calculator computes bond metrics for whole documents.
type Calculator struct {
	log          *logrus.Entry
	maxCashflows int // 0 = unlimited
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithMaxCashflows caps the total number of cashflows, summed over all bonds,
// that one batch may project. n <= 0 means no cap.
func WithMaxCashflows(n int) Option {
	return func(c *Calculator) { c.maxCashflows = n }
}

// NewCalculator returns a calculator that logs through logger.
func NewCalculator(logger *logrus.Logger, opts ...Option) *Calculator {
	c := &Calculator{log: logger.WithField("component", "batch")}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compute evaluates every bond of req. The first failing bond aborts the
// pass; no partial response is returned.
func (c *Calculator) Compute(req *payload.Request) (*payload.Response, error) {
	start := time.Now()
	resp := payload.NewResponse(len(req.Bonds))
	used := 0

	for i, rec := range req.Bonds {
		out, err := c.computeOne(i, rec, &used)
		if err != nil {
			c.log.WithFields(logrus.Fields{"bond": i, "error": err}).Debug("bond rejected")
			return nil, fmt.Errorf("bond %d: %w", i, err)
		}
		resp.Bonds = append(resp.Bonds, out)
	}

	c.log.WithFields(logrus.Fields{
		"bonds":   len(resp.Bonds),
		"took_ms": time.Since(start).Milliseconds(),
	}).Info("computed bond metrics")
	return resp, nil
}

func (c *Calculator) computeOne(i int, rec *payload.Record, used *int) (*payload.Record, error) {
	bond, err := rec.Bond()
	if err != nil {
		return nil, err
	}
	if err := c.reserve(used, bond.MaturityYears); err != nil {
		return nil, err
	}
	metrics, err := fixedincome.Compute(bond)
	if err != nil {
		return nil, err
	}

	out := rec.Clone()
	if err := out.Merge(metrics); err != nil {
		return nil, err
	}

	c.log.WithFields(logrus.Fields{
		"bond":        i,
		"rating":      bond.Rating,
		"maturity":    bond.MaturityYears,
		"marketPrice": metrics.MarketPrice,
	}).Debug("priced bond")
	return out, nil
}

// reserve counts a bond's cashflows against the batch budget.
func (c *Calculator) reserve(used *int, years int) error {
	if c.maxCashflows <= 0 || years <= 0 {
		return nil
	}
	*used += years
	if *used > c.maxCashflows {
		return fmt.Errorf("%w: more than %d cashflows", ErrCashflowBudget, c.maxCashflows)
	}
	return nil
}

// Run reads a document from r, computes it and writes the result to w.
// Nothing is written to w unless the whole batch succeeds.
func (c *Calculator) Run(r io.Reader, w io.Writer, indent string) error {
	req, err := payload.ReadRequest(r)
	if err != nil {
		return err
	}
	resp, err := c.Compute(req)
	if err != nil {
		return err
	}
	if err := payload.WriteResponse(w, resp, indent); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}
