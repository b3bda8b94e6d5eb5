package listings

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/user/wanderlust-go/apperror"
)

// ListingForm is the validated input for creating or updating a listing,
// filled either from an HTML form or a JSON body.
type ListingForm struct {
	Title       string  `json:"title" validate:"required,max=140"`
	Description string  `json:"description" validate:"required"`
	Price       float64 `json:"price" validate:"gte=0"`
	Location    string  `json:"location" validate:"required"`
	Country     string  `json:"country"`
	ImageURL    string  `json:"image_url" validate:"omitempty,url"`
}

// ParseListingForm fills a ListingForm from a submitted HTML form. The price
// field arrives as a string and must parse to a non-negative number; that
// check happens here so the service layer only ever sees typed values.
func ParseListingForm(r *http.Request) (ListingForm, error) {
	if err := r.ParseForm(); err != nil {
		return ListingForm{}, apperror.NewValidationError("malformed form submission", err)
	}

	form := ListingForm{
		Title:       strings.TrimSpace(r.PostFormValue("title")),
		Description: strings.TrimSpace(r.PostFormValue("description")),
		Location:    strings.TrimSpace(r.PostFormValue("location")),
		Country:     strings.TrimSpace(r.PostFormValue("country")),
		ImageURL:    strings.TrimSpace(r.PostFormValue("image_url")),
	}

	priceRaw := strings.TrimSpace(r.PostFormValue("price"))
	if priceRaw == "" {
		return form, apperror.NewValidationError("price is required", nil)
	}
	price, err := strconv.ParseFloat(priceRaw, 64)
	if err != nil || price < 0 {
		return form, apperror.NewValidationError("price must be a non-negative number", err)
	}
	form.Price = price
	return form, nil
}
