package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"document-qa/internal/helper"
	"document-qa/internal/models"
	"document-qa/internal/rag"
)

const (
	msgNoFile      = "Không có file."
	msgUnsupported = "Chỉ hỗ trợ PDF hoặc DOCX."
)

type questionRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Status           string   `json:"status"`
	Question         string   `json:"question"`
	Context          []string `json:"context"`
	Answer           string   `json:"answer"`
	AnswerHTML       string   `json:"answer_html"`
	RelatedQuestions []string `json:"related_questions,omitempty"`
}

type uploadResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Processed int    `json:"processed"`
	Filename  string `json:"filename"`
}

type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		log.Warn().Err(err).Msg("Error writing response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Status: "error", Message: message})
}

// an unreadable body counts as an empty question
func decodeQuestion(r *http.Request) string {
	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Debug().Err(err).Msg("Invalid question body")
		return ""
	}
	return strings.TrimSpace(req.Question)
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	question := decodeQuestion(r)
	if question == "" {
		writeError(w, http.StatusBadRequest, models.EmptyQuestion)
		return
	}

	answer, err := s.svc.Ask(r.Context(), question)
	if errors.Is(err, rag.ErrEmptyQuestion) {
		writeError(w, http.StatusBadRequest, models.EmptyQuestion)
		return
	}
	if err != nil {
		log.Error().Err(err).Str("question", question).Msg("Error answering question")
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Lỗi xử lý câu hỏi: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, askResponse{
		Status:           "success",
		Question:         answer.Question,
		Context:          answer.Context,
		Answer:           answer.Content,
		AnswerHTML:       s.renderMarkdown(answer.Content),
		RelatedQuestions: answer.RelatedQuestions,
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadMB<<20)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("File vượt quá %d MB.", s.cfg.MaxUploadMB))
			return
		}
		writeError(w, http.StatusBadRequest, msgNoFile)
		return
	}
	defer file.Close()
	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, msgNoFile)
		return
	}

	if err := s.svc.CheckFile(header.Filename); err != nil {
		log.Info().Err(err).Str("file", header.Filename).Msg("Rejected upload")
		writeError(w, http.StatusBadRequest, msgUnsupported)
		return
	}

	if err := helper.CreateFolder(s.cfg.UploadDir); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Lỗi xử lý file: %v", err))
		return
	}
	savePath := filepath.Join(s.cfg.UploadDir, helper.SafeFileName(header.Filename))
	if err := saveUpload(file, savePath); err != nil {
		log.Error().Err(err).Str("file", header.Filename).Msg("Error saving upload")
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Lỗi xử lý file: %v", err))
		return
	}

	count, err := s.svc.Ingest(r.Context(), savePath, strings.TrimSpace(r.FormValue("category")))
	if err != nil {
		log.Error().Err(err).Str("file", header.Filename).Int("stored", count).Msg("Error ingesting upload")
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Lỗi xử lý file: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Status:    "success",
		Message:   fmt.Sprintf("✅ Đã xử lý %d đoạn từ file %s.", count, header.Filename),
		Processed: count,
		Filename:  header.Filename,
	})
}

func saveUpload(src io.Reader, path string) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

func (s *Server) handleRelated(w http.ResponseWriter, r *http.Request) {
	question := decodeQuestion(r)
	if question == "" {
		writeJSON(w, http.StatusOK, map[string][]string{"related_questions": {}})
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{
		"related_questions": s.svc.RelatedQuestions(r.Context(), question),
	})
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.svc.Documents(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Error listing documents")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	total := 0
	for _, d := range docs {
		total += d.Chunks
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "success",
		"documents": docs,
		"chunks":    total,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStatic serves the built frontend. Paths that are not files fall back
// to index.html so client-side routes work.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	root := s.cfg.StaticDir
	clean := filepath.Clean("/" + r.URL.Path)
	path := filepath.Join(root, filepath.FromSlash(clean))

	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		http.ServeFile(w, r, path)
		return
	}
	index := filepath.Join(root, "index.html")
	if _, err := os.Stat(index); err != nil {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, index)
}
