package waitlist

// emailMember returns the "email" member of a decoded signup body, untyped so a missing or
// non-string value is reported as "Email is required". Strings, numbers and arrays have no
// members. ok is false only for a null body.
func emailMember(body any) (email any, ok bool) {
	switch v := body.(type) {
	case nil:
		return nil, false
	case map[string]any:
		return v["email"], true
	default:
		return nil, true
	}
}

type SignupResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Count   int64  `json:"count"`
}

type CountResponse struct {
	Count int64 `json:"count"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

const signupSuccessMessage = "Successfully joined the waitlist"
