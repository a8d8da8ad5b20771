package service

import (
	"errors"

	apperrors "process-monitor/internal/common/errors"
	"process-monitor/internal/monitor/llm"
	"process-monitor/internal/monitor/models"
	"process-monitor/internal/monitor/mutation"
	"process-monitor/internal/monitor/repository"
	"process-monitor/internal/monitor/savefile"
)

// mapError переводит доменные ошибки в StandardError с кодом для клиента.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperrors.As(err); ok {
		return err
	}

	switch {
	case errors.Is(err, mutation.ErrReadOnly):
		return apperrors.Wrap(apperrors.CodeReadOnlyField, "Field is read-only for readings", err)
	case errors.Is(err, mutation.ErrConfirmationRequired):
		return apperrors.Wrap(apperrors.CodeConfirmationRequired, "Removing a stage requires confirmation", err)
	case errors.Is(err, mutation.ErrZoneNotFound),
		errors.Is(err, mutation.ErrSubSystemNotFound),
		errors.Is(err, repository.ErrNotFound):
		return apperrors.Wrap(apperrors.CodeNotFound, "Not found", err)
	case errors.Is(err, mutation.ErrUnknownKind),
		errors.Is(err, mutation.ErrInvalidEdit),
		errors.Is(err, mutation.ErrSubSystemNotAllowed),
		errors.Is(err, mutation.ErrNoActiveReading),
		errors.Is(err, models.ErrUnknownPath),
		errors.Is(err, llm.ErrNoReadings):
		return apperrors.Wrap(apperrors.CodeValidationFailed, "Validation failed", err)
	case errors.Is(err, savefile.ErrInvalidFormat):
		return apperrors.Wrap(apperrors.CodeFormatInvalid, savefile.FormatErrorText, err)
	case errors.Is(err, savefile.ErrMalformed):
		return apperrors.Wrap(apperrors.CodeFormatInvalid, "Save file is not valid JSON", err)
	case errors.Is(err, llm.ErrUnavailable):
		return apperrors.Wrap(apperrors.CodeLLMUnavailable, "Analysis service is not configured", err)
	case errors.Is(err, llm.ErrInvalidJSON), errors.Is(err, llm.ErrEmptyTranscript):
		return apperrors.Wrap(apperrors.CodeLLMFailed, "Analysis service returned an invalid response", err)
	}
	return apperrors.Wrap(apperrors.CodeInternal, "Internal error", err)
}

// llmError - ошибка вызова модели: известные случаи по mapError, прочие как LLM_FAILED.
func llmError(err error) error {
	mapped := mapError(err)
	if apperrors.CodeOf(mapped) == apperrors.CodeInternal {
		return apperrors.Wrap(apperrors.CodeLLMFailed, "Analysis request failed", err)
	}
	return mapped
}

func storageError(err error) error {
	return apperrors.Wrap(apperrors.CodeStorageFailed, "Failed to persist workspace", err)
}
