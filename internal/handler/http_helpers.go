package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"travel-docs/internal/domain"
	apperrors "travel-docs/pkg/errors"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	return v
}

// validateStruct runs struct tag validation and turns failures into a
// single validation AppError.
func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.NewValidationError("invalid request", err.Error())
	}
	details := make([]string, 0, len(errs))
	for _, fe := range errs {
		details = append(details, fe.Field()+" "+validationMessage(fe))
	}
	return apperrors.NewValidationError("validation failed", strings.Join(details, "; "))
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	}
	return "is invalid"
}

// mutationResponse is returned by every endpoint that changes the collection.
type mutationResponse struct {
	Document     *domain.DocumentRecord `json:"document,omitempty"`
	ID           string                 `json:"id,omitempty"`
	Changed      bool                   `json:"changed"`
	Persisted    bool                   `json:"persisted"`
	PersistError string                 `json:"persist_error,omitempty"`
}

func newMutationResponse(doc *domain.DocumentRecord, result domain.PersistResult) mutationResponse {
	resp := mutationResponse{
		Document:  doc,
		Changed:   result.Changed,
		Persisted: result.Persisted,
	}
	if result.Err != nil {
		resp.PersistError = result.Err.Error()
	}
	return resp
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response (helper function)
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeAppError maps err to its HTTP status and writes it.
func writeAppError(w http.ResponseWriter, logger domain.Logger, err error) {
	appErr := apperrors.FromDomain(err)
	if appErr.StatusCode >= http.StatusInternalServerError {
		logger.Error("Request failed", err)
	}
	if apperrors.IsType(appErr, apperrors.ErrorTypeStorage) {
		w.Header().Set("Retry-After", "5")
	}
	body := map[string]string{"error": appErr.Message, "type": string(appErr.Type)}
	if appErr.Details != "" {
		body["details"] = appErr.Details
	}
	writeJSON(w, appErr.StatusCode, body)
}
