package reviews

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/user/wanderlust-go/apperror"
)

// ReviewForm is the validated input for posting a review.
type ReviewForm struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required"`
}

// ParseReviewForm fills a ReviewForm from a submitted HTML form.
func ParseReviewForm(r *http.Request) (ReviewForm, error) {
	if err := r.ParseForm(); err != nil {
		return ReviewForm{}, apperror.NewValidationError("malformed form submission", err)
	}

	form := ReviewForm{Comment: strings.TrimSpace(r.PostFormValue("comment"))}

	ratingRaw := strings.TrimSpace(r.PostFormValue("rating"))
	rating, err := strconv.Atoi(ratingRaw)
	if err != nil {
		return form, apperror.NewValidationError("rating must be a number between 1 and 5", err)
	}
	form.Rating = rating
	return form, nil
}
