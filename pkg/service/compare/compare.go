// Package compare runs the format comparators: single comparisons, batches
// and their reports.
package compare

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.keploy.io/comparator/pkg/models"
	"go.keploy.io/comparator/utils"
	"go.uber.org/zap"
)

// Request is one comparison. Expected and Actual are decoded first when
// Encoded is set.
type Request struct {
	Name     string
	Format   string
	Expected []byte
	Actual   []byte
	Encoded  bool
	Params   *models.Parameters
}

type Compare struct {
	logger   *zap.Logger
	decoder  Decoder
	parallel int

	mu          sync.RWMutex
	comparators map[string]Comparator
}

func New(logger *zap.Logger, decoder Decoder, parallel int) *Compare {
	if parallel < 1 {
		parallel = 1
	}
	return &Compare{
		logger:      logger,
		decoder:     decoder,
		parallel:    parallel,
		comparators: make(map[string]Comparator),
	}
}

// Register makes c the comparator of format, replacing any previous one.
func (c *Compare) Register(format string, cmp Comparator) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.comparators[strings.ToLower(format)] = cmp
}

func (c *Compare) Formats() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.comparators))
	for f := range c.comparators {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func (c *Compare) comparator(format string) (Comparator, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cmp, ok := c.comparators[strings.ToLower(format)]
	if !ok {
		return nil, models.NewRuleConfigError("unknown format %q", format)
	}
	return cmp, nil
}

func (c *Compare) Compare(ctx context.Context, req Request) (res *models.Result, err error) {
	cmp, err := c.comparator(req.Format)
	if err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("comparator panicked", zap.String("name", req.Name), zap.Any("panic", r))
			res, err = nil, models.NewComparisonFailure("%s comparator failed: %v", req.Format, r)
		}
	}()
	res, err = CompareEncoded(ctx, cmp, c.decoder, req.Expected, req.Actual, req.Encoded, req.Params)
	if err != nil {
		utils.LogError(c.logger, err, "comparison failed", zap.String("name", req.Name), zap.String("format", req.Format))
		return nil, err
	}
	c.logger.Debug("compared", zap.String("name", req.Name), zap.String("format", req.Format),
		zap.Int("differences", len(res.Differences)), zap.Bool("passed", res.Passed()))
	return res, nil
}

// CompareEncoded decodes both sides when encoded is set and compares them
// with c.
func CompareEncoded(ctx context.Context, c Comparator, d Decoder, expected, actual []byte, encoded bool, params *models.Parameters) (*models.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	exp, act := string(expected), string(actual)
	if encoded {
		if d == nil {
			return nil, fmt.Errorf("encoded content needs a decoder")
		}
		var err error
		if exp, err = d.Decode(expected); err != nil {
			return nil, fmt.Errorf("expected: %w", err)
		}
		if act, err = d.Decode(actual); err != nil {
			return nil, fmt.Errorf("actual: %w", err)
		}
	}
	return c.Compare(exp, act, params)
}
