package pinning

import "github.com/ruteri/pinning-aggregation/interfaces"

// DefaultVariants returns the pinning variants built into this module, in resolution order.
func DefaultVariants() []interfaces.PinningVariant {
	return []interfaces.PinningVariant{
		IpfsVariant,
		S3Variant,
		FileVariant,
	}
}
