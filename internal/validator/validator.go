package validator

// Validator bundles struct validation and business rule validation for
// the service layer.
type Validator struct {
	business *BusinessValidator
}

func New() *Validator {
	return &Validator{
		business: NewBusinessValidator(),
	}
}

// GetBusinessValidator returns the underlying business validator
func (v *Validator) GetBusinessValidator() *BusinessValidator {
	return v.business
}

// Validate validates any struct against its tags and registered rules
func (v *Validator) Validate(s interface{}) ValidationErrors {
	return v.business.Validate(s)
}
