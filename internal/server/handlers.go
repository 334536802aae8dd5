package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/axiomgov/axiom/internal/analytics"
	"github.com/axiomgov/axiom/internal/models"
)

// uploadExtensions lists the accepted document formats.
var uploadExtensions = map[string]bool{
	".pdf": true, ".docx": true, ".md": true, ".txt": true, ".xlsx": true,
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req models.QuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("ask request", zap.String("question", req.Question), zap.Int("top_k", req.TopK))

	resp, err := s.engine.AnswerQuestion(r.Context(), &req)
	if err != nil {
		if req.Question == "" {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("question answering failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if s.tracker != nil {
		metrics := &analytics.QuestionMetrics{
			QuestionID:       uuid.New().String(),
			Question:         resp.Question,
			RiskCategory:     string(resp.Response.RiskCategory),
			ConfidenceScore:  resp.Response.ConfidenceScore,
			EvidenceCoverage: resp.Response.EvidenceCoverage,
			RetrievedChunks:  resp.RetrievedChunks,
			ProcessingTime:   resp.ProcessingTime,
		}
		if err := s.tracker.TrackQuestion(r.Context(), metrics); err != nil {
			// Analytics loss should not fail the answer.
			s.logger.Warn("failed to track question", zap.Error(err))
		}
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":            "success",
		"question":          resp.Question,
		"answer":            resp.Response.Answer,
		"risk_category":     resp.Response.RiskCategory,
		"confidence_score":  resp.Response.ConfidenceScore,
		"citations":         resp.Response.Citations,
		"limitations":       resp.Response.Limitations,
		"evidence_coverage": resp.Response.EvidenceCoverage,
		"refused":           resp.Response.Refused,
		"retrieved_chunks":  resp.RetrievedChunks,
		"processing_time":   resp.ProcessingTime,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}
	questions, err := s.tracker.GetRecentQuestions(r.Context(), limit)
	if err != nil {
		s.logger.Error("history query failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "success",
		"total":     len(questions),
		"questions": questions,
	})
}

func (s *Server) handleByCategory(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	if models.ParseRiskCategory(category) == models.RiskUnknown && category != string(models.RiskUnknown) {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("unknown risk category: %s", category))
		return
	}
	questions, err := s.tracker.GetQuestionsByCategory(r.Context(), category)
	if err != nil {
		s.logger.Error("category query failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "success",
		"category":  category,
		"total":     len(questions),
		"questions": questions,
	})
}

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !uploadExtensions[ext] {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("unsupported file type: %s", ext))
		return
	}

	uploadDir := s.config.Storage.UploadDir
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	fileID := uuid.New().String()
	path := filepath.Join(uploadDir, fmt.Sprintf("%s_%s", fileID, filepath.Base(header.Filename)))

	dst, err := os.Create(path)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if _, err := io.Copy(dst, file); err != nil {
		_ = dst.Close()
		_ = os.Remove(path)
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	_ = dst.Close()

	chunks, err := s.indexer.IndexFile(r.Context(), path)
	if err != nil {
		_ = os.Remove(path)
		s.logger.Error("document indexing failed", zap.String("path", path), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := s.store.Save(s.config.Storage.VectorStoreDir); err != nil {
		s.logger.Warn("failed to persist vector store", zap.Error(err))
	}

	s.logger.Info("document uploaded",
		zap.String("file_id", fileID),
		zap.String("filename", header.Filename),
		zap.Int("chunks", chunks))
	s.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status":         "success",
		"file_id":        fileID,
		"filename":       header.Filename,
		"chunks_created": chunks,
	})
}

type documentInfo struct {
	FileID     string `json:"file_id"`
	Filename   string `json:"filename"`
	Size       int64  `json:"size"`
	UploadedAt int64  `json:"uploaded_at"`
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	entries, err := os.ReadDir(s.config.Storage.UploadDir)
	if err != nil && !os.IsNotExist(err) {
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	documents := make([]documentInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		fileID, filename := "unknown", entry.Name()
		if parts := strings.SplitN(entry.Name(), "_", 2); len(parts) == 2 {
			fileID, filename = parts[0], parts[1]
		}
		documents = append(documents, documentInfo{
			FileID:     fileID,
			Filename:   filename,
			Size:       info.Size(),
			UploadedAt: info.ModTime().Unix(),
		})
	}
	sort.Slice(documents, func(i, j int) bool {
		return documents[i].UploadedAt > documents[j].UploadedAt
	})

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"total":     len(documents),
		"documents": documents,
	})
}

func (s *Server) handleDocumentStats(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"stats":  s.store.GetStats(),
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	metrics, err := s.tracker.GetSystemMetrics(r.Context())
	if err != nil {
		s.logger.Error("dashboard query failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, metrics)
}

func (s *Server) handleConfidenceCoverage(w http.ResponseWriter, r *http.Request) {
	stats, err := s.tracker.GetCoverageStats(r.Context())
	if err != nil {
		s.logger.Error("coverage stats query failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
