package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"menupos/internal/models"
	"menupos/internal/receipt"
	"menupos/internal/worker"
)

func (s *Server) handleOnline(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	// A live probe, not the cached belief: the UI asks right before
	// submitting.
	online := s.monitor.CheckOnline(r.Context())
	writeJSON(w, http.StatusOK, map[string]bool{"online": online})
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		orders, err := s.orders.ListAllOrders(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if orders == nil {
			orders = []models.QueuedOrder{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"orders": orders})

	case http.MethodPost:
		var body struct {
			Order *models.Order `json:"order"`
			Token string        `json:"token"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		token := s.resolveToken(r, body.Token)
		result := s.orders.SubmitOrder(r.Context(), body.Order, token)
		if !result.Success {
			writeJSON(w, http.StatusUnprocessableEntity, result)
			return
		}
		writeJSON(w, http.StatusOK, result)

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handlePendingOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	orders, err := s.orders.ListPendingOrders(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if orders == nil {
		orders = []models.QueuedOrder{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (s *Server) handleOrderByID(w http.ResponseWriter, r *http.Request) {
	const prefix = "/api/v1/orders/"
	idStr := strings.TrimPrefix(r.URL.Path, prefix)
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if err := s.orders.RemoveOrder(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		Token string `json:"token"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	result, err := s.syncer.Reconcile(r.Context(), body.Token)
	if err != nil {
		if errors.Is(err, worker.ErrSyncInProgress) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleMenu(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var restaurantID int64
	if raw := r.URL.Query().Get("restaurantId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid restaurantId")
			return
		}
		restaurantID = id
	}
	restaurantName := r.URL.Query().Get("restaurantName")

	menu, fromCache, err := s.menu.GetMenu(r.Context(), restaurantID, restaurantName, s.resolveToken(r, ""))
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"menu": menu, "from_cache": fromCache})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		sess, err := s.sessions.Load(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"session": sess})

	case http.MethodPut:
		var sess models.Session
		if err := json.NewDecoder(r.Body).Decode(&sess); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if err := s.sessions.Save(r.Context(), &sess); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})

	case http.MethodDelete:
		if err := s.sessions.Clear(r.Context()); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handlePrinters(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		configs, err := s.sessions.LoadPrinters(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"printers": configs})

	case http.MethodPut:
		var configs map[string]models.PrinterConfig
		if err := json.NewDecoder(r.Body).Decode(&configs); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		if err := s.sessions.SavePrinters(r.Context(), configs); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleReceiptPreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		Order        *models.Order `json:"order"`
		OrderID      int64         `json:"orderId"`
		PaperWidthMM int           `json:"paperWidthMm"`
		MarginMM     int           `json:"marginMm"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	html, err := s.renderer.RenderHTML(body.Order, body.OrderID, receipt.Options{
		PaperWidthMM: body.PaperWidthMM,
		MarginMM:     body.MarginMM,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"html": html})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	orders, err := s.orders.ListAllOrders(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	filePath, err := s.exporter.ExportOrders(r.Context(), orders)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"file_path": filePath})
}

// resolveToken picks the credential for a request: explicit body token,
// then Authorization header, then the cached session.
func (s *Server) resolveToken(r *http.Request, bodyToken string) string {
	if bodyToken != "" {
		return bodyToken
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if sess, err := s.sessions.Load(r.Context()); err == nil && sess != nil {
		return sess.Token
	}
	return ""
}
