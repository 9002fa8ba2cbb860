package handlers

import (
	"fmt"
	"net/http"

	"visionforge/internal/middleware"
)

type messageKey string

const (
	msgImageRequired  messageKey = "image_required"
	msgPromptRequired messageKey = "prompt_required"
	msgFileRequired   messageKey = "file_required"
	msgInvalidSize    messageKey = "invalid_size"
	msgInvalidForm    messageKey = "invalid_form"
	msgFileTooLarge   messageKey = "file_too_large"
	msgEditFailed     messageKey = "edit_failed"
	msgUploadFailed   messageKey = "upload_failed"
)

var messages = map[string]map[messageKey]string{
	"en": {
		msgImageRequired:  "image is required",
		msgPromptRequired: "prompt is required",
		msgFileRequired:   "file is required",
		msgInvalidSize:    "size must be one of %s",
		msgInvalidForm:    "invalid multipart form",
		msgFileTooLarge:   "file exceeds the %d MB limit",
		msgEditFailed:     "image edit failed: %v",
		msgUploadFailed:   "upload failed: %v",
	},
	"id": {
		msgImageRequired:  "image wajib diisi",
		msgPromptRequired: "prompt wajib diisi",
		msgFileRequired:   "file wajib diisi",
		msgInvalidSize:    "size harus salah satu dari %s",
		msgInvalidForm:    "form multipart tidak valid",
		msgFileTooLarge:   "ukuran file melebihi batas %d MB",
		msgEditFailed:     "gagal mengedit gambar: %v",
		msgUploadFailed:   "gagal mengunggah: %v",
	},
}

// message renders key in the request's negotiated locale, falling back to
// English.
func message(r *http.Request, key messageKey, args ...any) string {
	table, ok := messages[middleware.LocaleFromContext(r.Context())]
	if !ok {
		table = messages["en"]
	}
	format, ok := table[key]
	if !ok {
		format = messages["en"][key]
	}
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
