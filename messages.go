package main

import (
	"database/sql"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// messagesRouter handles GET and POST /messages/{userID}.
func messagesRouter(db *sql.DB) http.HandlerFunc {
	return authenticate(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		if len(parts) != 2 || parts[0] != "messages" {
			http.NotFound(w, r)
			return
		}
		otherID, err := strconv.Atoi(parts[1])
		if err != nil {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}

		me := r.Context().Value(userIDKey).(int)
		if otherID == me {
			writeError(w, http.StatusBadRequest, "invalid_target")
			return
		}

		// The gate is re-evaluated on every read AND write. A profile edit
		// that drops the score below the threshold locks the thread at once.
		gate, err := canMessage(db, me, otherID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "db_error")
			log.Println("canMessage error:", err)
			return
		}
		if !gate.Allowed {
			writeJSON(w, http.StatusForbidden, map[string]interface{}{
				"error": "messaging_locked",
				"gate":  gate,
			})
			return
		}

		switch r.Method {
		case http.MethodGet:
			getMessageHistory(db, w, r, me, otherID, gate)
		case http.MethodPost:
			sendMessage(db, w, r, me, otherID)
		default:
			writeError(w, http.StatusMethodNotAllowed, "invalid_method")
		}
	})
}

type messageView struct {
	ID                 int64     `json:"id"`
	FromUserID         int       `json:"from_user_id"`
	ToUserID           int       `json:"to_user_id"`
	Body               string    `json:"body,omitempty"`
	AttachmentFilename string    `json:"attachment_filename,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

func getMessageHistory(db *sql.DB, w http.ResponseWriter, r *http.Request, me, otherID int, gate gateResult) {
	rows, err := db.Query(`
		SELECT id, from_user_id, to_user_id, body, attachment_filename, created_at
		FROM messages
		WHERE (from_user_id = $1 AND to_user_id = $2)
		   OR (from_user_id = $2 AND to_user_id = $1)
		ORDER BY created_at ASC, id ASC
		LIMIT $3
	`, me, otherID, cfg.MessageHistoryLimit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	defer rows.Close()

	messages := []messageView{}
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.FromUserID, &m.ToUserID, &m.Body, &m.AttachmentFilename, &m.CreatedAt); err != nil {
			continue
		}
		messages = append(messages, messageView{
			ID:                 m.ID,
			FromUserID:         m.FromUserID,
			ToUserID:           m.ToUserID,
			Body:               m.Body.String,
			AttachmentFilename: m.AttachmentFilename.String,
			CreatedAt:          m.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"messages": messages,
		"gate":     gate,
	})
}

// sendMessage accepts multipart (body field + optional image attachment) or
// a plain form body. Messages are append-only; there is no edit or delete.
func sendMessage(db *sql.DB, w http.ResponseWriter, r *http.Request, me, otherID int) {
	var body string
	var attachment string

	ctype := r.Header.Get("Content-Type")
	if strings.HasPrefix(ctype, "multipart/form-data") {
		maxBytes := cfg.MaxUploadMB << 20
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		if err := r.ParseMultipartForm(maxBytes + (1 << 20)); err != nil {
			writeError(w, http.StatusRequestEntityTooLarge, "file_too_large")
			return
		}
		body = strings.TrimSpace(r.FormValue("body"))

		if f, _, err := r.FormFile("attachment"); err == nil {
			defer f.Close()
			ext, err := sniffImageExt(f)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_attachment_type")
				return
			}
			attachment, err = storeUpload(f, "messages", "msg", ext)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "save_failed")
				return
			}
		}
	} else {
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_form")
			return
		}
		body = strings.TrimSpace(r.FormValue("body"))
	}

	if len(body) > cfg.MaxMessageLen {
		writeError(w, http.StatusBadRequest, "message_too_long")
		return
	}
	if body == "" && attachment == "" {
		writeError(w, http.StatusBadRequest, "empty_message")
		return
	}

	msg, err := insertMessage(db, me, otherID, body, attachment)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		log.Println("insertMessage error:", err)
		return
	}

	// Relay to any live websocket sessions of either side.
	chatHub.sendToUser(otherID, ServerEvent{Type: "message", From: me, Data: msg})
	chatHub.sendToUser(me, ServerEvent{Type: "message", From: me, Data: msg})

	writeJSON(w, http.StatusCreated, msg)
}

func insertMessage(db *sql.DB, fromID, toID int, body, attachment string) (*messageView, error) {
	m := messageView{
		FromUserID:         fromID,
		ToUserID:           toID,
		Body:               body,
		AttachmentFilename: attachment,
	}
	err := db.QueryRow(`
		INSERT INTO messages (from_user_id, to_user_id, body, attachment_filename)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''))
		RETURNING id, created_at
	`, fromID, toID, body, attachment).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
