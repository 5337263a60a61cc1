package request

import validation "github.com/go-ozzo/ozzo-validation"

type ScanRequest struct {
	Payload string `json:"payload"`
}

func (req *ScanRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Payload, validation.Required, validation.Length(1, 4096)),
	)
}
