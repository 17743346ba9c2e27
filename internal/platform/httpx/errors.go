package httpx

import (
	"net/http"

	"github.com/quipu-ledger/quipu/internal/shared"
)

// RespondError maps ledger-core errors to RFC7807 responses by their
// taxonomy kind. Integrity violations surface as 500 because they signal
// corruption, not caller mistakes.
func RespondError(w http.ResponseWriter, err error) {
	switch shared.KindOf(err) {
	case shared.KindValidation:
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case shared.KindNotFound:
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case shared.KindConcurrency:
		Problem(w, http.StatusConflict, "Posting Conflict", err.Error())
	case shared.KindConfiguration:
		Problem(w, http.StatusUnprocessableEntity, "Missing Reference Data", err.Error())
	case shared.KindIntegrity:
		Problem(w, http.StatusInternalServerError, "Ledger Integrity Violation", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
