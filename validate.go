package ioc

import (
	"errors"

	"go.uber.org/zap"
)

// Validate resolves every token bound in c without constructing anything
// and reports all unresolvable tokens and cycles, joined. A cycle is
// reported once even when several of its tokens are bound in c.
func (c *Container) Validate() error {
	var errs []error
	inReportedCycle := make(map[*Token]bool)

	for _, token := range c.order {
		if inReportedCycle[token] {
			continue
		}

		res, err := c.resolve(token)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		if circular, ok := res.(*CircularResolution); ok {
			for _, node := range circular.Cycle() {
				if node.Token != nil {
					inReportedCycle[node.Token] = true
				}
			}
			errs = append(errs, &CircularDependencyError{Resolution: circular})
		}
	}

	if len(errs) > 0 {
		c.logger.Debug("validation failed", zap.Int("errors", len(errs)))
	}
	return errors.Join(errs...)
}
