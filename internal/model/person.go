package model

// Gender values accepted by the person schema.
const (
	GenderMale      = "MALE"
	GenderFemale    = "FEMALE"
	GenderNonBinary = "NON_BINARY"
)

// UserType values accepted by the user lookup showcase.
const (
	UserTypeStandard = "standard"
	UserTypeAdmin    = "admin"
)

// UserFormat values accepted by the user listing showcase.
const (
	UserFormatShort = "short"
	UserFormatFull  = "full"
)

// Address is a postal address.
type Address struct {
	StreetAddress string `json:"street_address" validate:"required"`
	PostalCode    string `json:"postal_code" validate:"required"`
	City          string `json:"city" validate:"required"`
	Country       string `json:"country" validate:"required"`
}

// Person is a validated person record.
type Person struct {
	FirstName string   `json:"first_name" validate:"required,min=3"`
	LastName  string   `json:"last_name" validate:"required,min=3"`
	Age       *int     `json:"age,omitempty" validate:"omitempty,gte=0,lte=120"`
	Gender    string   `json:"gender,omitempty" validate:"omitempty,oneof=MALE FEMALE NON_BINARY"`
	Birthdate string   `json:"birthdate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Interests []string `json:"interests"`
	Address   *Address `json:"address,omitempty" validate:"omitempty"`
}
