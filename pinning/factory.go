package pinning

import (
	"fmt"
	"log/slog"
	"net/url"
	"regexp"

	"github.com/ruteri/pinning-aggregation/interfaces"
)

// designatorPattern takes the leading word run of a scheme, so "ipfs+https" yields "ipfs".
var designatorPattern = regexp.MustCompile(`^(\w+)\+?`)

var _ interfaces.PinningFactory = (*PinningFactory)(nil)

// PinningFactory resolves connection strings to pinning backends using an ordered
// registry of variants, and builds aggregations from lists of connection strings.
type PinningFactory struct {
	log      *slog.Logger
	pctx     *interfaces.PinningContext
	variants []interfaces.PinningVariant
}

// NewPinningFactory creates a factory over the given variants. The shared pinning
// context is handed to every variant constructor untouched and may be nil.
//
// Designators should be unique. When they are not, the first registered variant wins
// and the duplicate is logged.
func NewPinningFactory(logger *slog.Logger, pctx *interfaces.PinningContext, variants []interfaces.PinningVariant) *PinningFactory {
	if logger == nil {
		logger = slog.Default()
	}

	seen := make(map[string]struct{}, len(variants))
	for _, variant := range variants {
		if _, ok := seen[variant.Designator]; ok {
			logger.Warn("Duplicate pinning designator, first registration wins",
				slog.String("designator", variant.Designator))
			continue
		}
		seen[variant.Designator] = struct{}{}
	}

	registry := make([]interfaces.PinningVariant, len(variants))
	copy(registry, variants)

	return &PinningFactory{
		log:      logger,
		pctx:     pctx,
		variants: registry,
	}
}

// Designator extracts the variant designator from a connection string.
// Strings that are not absolute URIs fail with interfaces.ErrInvalidConnectionString.
// It returns an empty designator when the scheme does not start with a word character.
func Designator(connectionString string) (string, error) {
	u, err := url.Parse(connectionString)
	if err != nil {
		return "", fmt.Errorf("%w: %v", interfaces.ErrInvalidConnectionString, err)
	}
	if !u.IsAbs() {
		return "", fmt.Errorf("%w: missing scheme in %q", interfaces.ErrInvalidConnectionString, connectionString)
	}

	match := designatorPattern.FindStringSubmatch(u.Scheme)
	if match == nil {
		return "", nil
	}
	return match[1], nil
}

// PinningFor creates a pinning backend from a connection string.
// The connection string format is <scheme>[+<sub>]://<host>[:<port>][/path][?params]
//
// Returns an error wrapping interfaces.ErrInvalidConnectionString if the string does not
// parse, or an *interfaces.UnknownPinningServiceError if no variant is registered for it.
func (pf *PinningFactory) PinningFor(connectionString string) (interfaces.Pinning, error) {
	designator, err := Designator(connectionString)
	if err != nil {
		return nil, err
	}

	for _, variant := range pf.variants {
		if designator == "" || variant.Designator != designator {
			continue
		}

		pf.log.Debug("Creating pinning backend",
			slog.String("designator", designator))

		backend, err := variant.Build(connectionString, pf.pctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s pinning backend: %w", designator, err)
		}
		return backend, nil
	}

	return nil, &interfaces.UnknownPinningServiceError{Designator: designator}
}

// CreateAggregation creates a pinning aggregation with one backend per connection string,
// in input order. Any connection string that cannot be resolved fails the whole call.
func (pf *PinningFactory) CreateAggregation(connectionStrings []string) (interfaces.Pinning, error) {
	aggregation, err := pf.NewAggregation(connectionStrings)
	if err != nil {
		return nil, err
	}
	return aggregation, nil
}

// NewAggregation is CreateAggregation returning the concrete type.
func (pf *PinningFactory) NewAggregation(connectionStrings []string) (*PinningAggregation, error) {
	backends := make([]interfaces.Pinning, 0, len(connectionStrings))
	for _, connectionString := range connectionStrings {
		backend, err := pf.PinningFor(connectionString)
		if err != nil {
			pf.log.Error("Failed to create pinning backend", "err", err)
			return nil, err
		}
		backends = append(backends, backend)
	}

	return NewPinningAggregation(backends, pf.log), nil
}
