package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// GenerateRequest represents a password generation request.
// Pointer bools allow distinguishing between missing (nil -> default true) and explicit false.
type GenerateRequest struct {
	Length  LengthField `json:"length"`
	Letters *bool       `json:"letters"`
	Digits  *bool       `json:"digits"`
	Special *bool       `json:"special"`
}

// LengthField holds the requested length as typed by the user. A blank value
// selects the default length. It decodes from either a JSON string or number.
type LengthField string

func (l *LengthField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = LengthField(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("length must be a number or string: %w", err)
	}
	*l = LengthField(n.String())
	return nil
}

// Int builds a LengthField from an integer.
func Int(n int) LengthField {
	return LengthField(strconv.Itoa(n))
}

// GenerateResponse represents a password generation response.
type GenerateResponse struct {
	Password string   `json:"password"`
	Length   int      `json:"length"`
	Classes  []string `json:"classes"`
	Strength string   `json:"strength"`
	Color    string   `json:"color"`
}

// StrengthRequest asks for the rating of an existing password.
type StrengthRequest struct {
	Password string `json:"password"`
}

// StrengthResponse carries a strength rating and its display color.
type StrengthResponse struct {
	Strength string `json:"strength"`
	Color    string `json:"color"`
}
