package core

// ADCValue is the raw result of one completed conversion.
// Convention here: right-aligned 12-bit value in a 16-bit word.
type ADCValue uint16

// ADCMax is the largest raw value of a 12-bit converter
const ADCMax = 4095

// ADCDriver is the abstract converter interface the sampler uses.
// Completion is signalled by the platform calling
// Sampler.HandleConversionComplete from its conversion-ready interrupt.
type ADCDriver interface {
	// Start begins one conversion.
	Start()

	// Result returns the latest completed conversion.
	Result() ADCValue

	// EnableReadyInterrupt unmasks the conversion-complete interrupt.
	EnableReadyInterrupt()

	// DisableReadyInterrupt masks the conversion-complete interrupt.
	DisableReadyInterrupt()
}
