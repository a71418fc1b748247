package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/eventhub-pro/eventhub-api/middleware"
	"github.com/eventhub-pro/eventhub-api/services"
)

type jsonResponse map[string]interface{}

const maxJSONBodyBytes = 1_048_576 // 1MB

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBytesError.Limit)
		case errors.As(err, &invalidUnmarshalError):
			panic(err) // ошибка программиста: передан не указатель
		default:
			return err
		}
	}

	err = dec.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

// decodeAndValidate читает тело запроса и проверяет его тегами validate.
// При ошибке ответ уже отправлен и возвращается false.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := readJSON(w, r, dst); err != nil {
		badRequestResponse(w, r, err)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			failedValidationResponse(w, r, validationErrors)
			return false
		}
		serverErrorResponse(w, r, err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}, headers http.Header) error {
	js, err := json.Marshal(data)
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

// respond пишет JSON и логирует ошибку записи: заголовки уже отправлены.
func respond(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	if err := writeJSON(w, status, data, nil); err != nil {
		slog.Default().ErrorContext(r.Context(), "failed to write response", slog.String("path", r.URL.Path), slog.Any("error", err))
	}
}

// errorResponse отправляет {"message": ...}. Сообщения сервисов начинаются
// со строчной буквы, клиенту отдаем с заглавной.
func errorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	respond(w, r, status, jsonResponse{"message": capitalize(message)})
}

func serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	slog.Default().ErrorContext(r.Context(), "internal server error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Any("error", err),
	)
	respond(w, r, http.StatusInternalServerError, jsonResponse{"message": "Server error", "error": err.Error()})
}

func badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func failedValidationResponse(w http.ResponseWriter, r *http.Request, errs validator.ValidationErrors) {
	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		fields[fe.Field()] = validationMessage(fe)
	}
	respond(w, r, http.StatusBadRequest, jsonResponse{
		"message": capitalize(validationMessage(errs[0])),
		"errors":  fields,
	})
}

func notFoundResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusNotFound, message)
}

func unauthorizedResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusUnauthorized, message)
}

func forbiddenResponse(w http.ResponseWriter, r *http.Request, message string) {
	errorResponse(w, r, http.StatusForbidden, message)
}

// mapServiceErrorToHTTP преобразует ошибки сервисного слоя в HTTP-ответы.
func mapServiceErrorToHTTP(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	// Не найдено
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrUserEmailNotFound),
		errors.Is(err, services.ErrEventNotFound),
		errors.Is(err, services.ErrSessionNotFound),
		errors.Is(err, services.ErrTeamNotFound),
		errors.Is(err, services.ErrInvitationNotFound),
		errors.Is(err, services.ErrMemberNotFound),
		errors.Is(err, services.ErrNotTeamMember),
		errors.Is(err, services.ErrRegistrationNotFound):
		notFoundResponse(w, r, err.Error())

	// Конфликты
	case errors.Is(err, services.ErrUserEmailConflict),
		errors.Is(err, services.ErrAlreadyRegistered),
		errors.Is(err, services.ErrEventHasDependencies):
		errorResponse(w, r, http.StatusConflict, err.Error())

	// Невалидные данные и бизнес-правила
	case errors.Is(err, services.ErrValidationFailed),
		errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrWrongPassword),
		errors.Is(err, services.ErrInvalidDateRange),
		errors.Is(err, services.ErrTeamNameConflict),
		errors.Is(err, services.ErrSelfInvite),
		errors.Is(err, services.ErrAlreadyMember),
		errors.Is(err, services.ErrAlreadyInvited),
		errors.Is(err, services.ErrInvitationProcessed),
		errors.Is(err, services.ErrCannotRemoveCaptain),
		errors.Is(err, services.ErrCaptainCannotLeave),
		errors.Is(err, services.ErrRegistrationClosed),
		errors.Is(err, services.ErrEventFull),
		errors.Is(err, services.ErrAlreadyInEventTeam):
		badRequestResponse(w, r, err)

	// Доступ
	case errors.Is(err, services.ErrAuthenticationFailed):
		unauthorizedResponse(w, r, err.Error())
	case errors.Is(err, services.ErrForbiddenOperation),
		errors.Is(err, services.ErrCaptainActionForbidden),
		errors.Is(err, services.ErrInvitationNotForUser),
		errors.Is(err, services.ErrAdminDeletionForbidden):
		forbiddenResponse(w, r, err.Error())

	case errors.Is(err, services.ErrPosterStorageMissing):
		errorResponse(w, r, http.StatusServiceUnavailable, err.Error())

	default:
		serverErrorResponse(w, r, err)
	}
}

func getIDFromURL(r *http.Request, paramName string) (int, error) {
	idStr := chi.URLParam(r, paramName)
	if idStr == "" {
		return 0, fmt.Errorf("missing %s in URL path", paramName)
	}

	id, err := strconv.Atoi(idStr)
	if err != nil {
		return 0, fmt.Errorf("invalid %s format: %q", paramName, idStr)
	}
	if id <= 0 {
		return 0, fmt.Errorf("invalid %s value: %d", paramName, id)
	}

	return id, nil
}

// requireIdentity достает пользователя, положенного в контекст middleware.Authenticate.
func requireIdentity(w http.ResponseWriter, r *http.Request) (middleware.Identity, bool) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		unauthorizedResponse(w, r, "authentication required")
		return middleware.Identity{}, false
	}
	return identity, true
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
