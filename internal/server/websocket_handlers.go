package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/MeKo-Tech/slipscan/internal/pipeline"
	"github.com/MeKo-Tech/slipscan/internal/utils"
)

// WebSocket message types.
const (
	MessageExtractText  = "extract_text"
	MessageExtractImage = "extract_image"
	MessagePing         = "ping"
	MessagePong         = "pong"
	MessageResult       = "extract_result"
	MessageError        = "error"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsPingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// origin checks are left to the CORS policy of the deployment
	CheckOrigin: func(*http.Request) bool { return true },
}

// WebSocketRequest is one client message. Image carries base64 encoded
// image bytes for extract_image.
type WebSocketRequest struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id,omitempty"`
	Source    string `json:"source,omitempty"`
	Text      string `json:"text,omitempty"`
	Image     []byte `json:"image,omitempty"`
}

// WebSocketResponse is one server message.
type WebSocketResponse struct {
	Type      string           `json:"type"`
	RequestID string           `json:"request_id,omitempty"`
	Status    string           `json:"status,omitempty"`
	Result    *ExtractResponse `json:"result,omitempty"`
	Error     string           `json:"error,omitempty"`
	ErrorType string           `json:"error_type,omitempty"`
}

// WebSocketConnWriter is the part of *websocket.Conn used to answer.
type WebSocketConnWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// extractWebSocketHandler streams extractions over one connection.
func (s *Server) extractWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() { _ = conn.Close() }()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	s.logger.Info("WebSocket connection established", "remote_addr", r.RemoteAddr)
	s.handleWebSocketConnection(r.Context(), conn)
}

func (s *Server) handleWebSocketConnection(ctx context.Context, conn *websocket.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			}
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("WebSocket error", "error", err)
			}
			return
		}
		websocketMessagesTotal.WithLabelValues("received").Inc()
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

		if messageType == websocket.TextMessage {
			s.handleWebSocketMessage(ctx, conn, data)
		}
	}
}

// handleWebSocketMessage answers one request message.
func (s *Server) handleWebSocketMessage(ctx context.Context, conn WebSocketConnWriter, data []byte) {
	var req WebSocketRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendWebSocketError(conn, "", "invalid_request", fmt.Sprintf("Failed to parse request: %v", err))
		return
	}
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	switch req.Type {
	case MessagePing:
		s.sendWebSocketResponse(conn, WebSocketResponse{Type: MessagePong, RequestID: req.RequestID})
	case MessageExtractText:
		start := time.Now()
		doc := s.pipeline.ExtractText(sourceName(req.Source, "websocket"), req.Text)
		recordExtraction("websocket_text", doc, time.Since(start))
		s.sendWebSocketResult(conn, req.RequestID, &ExtractResponse{
			Success: true, RequestID: req.RequestID, Fields: doc.Record.Order, Document: &doc,
		})
	case MessageExtractImage:
		s.processWebSocketImage(ctx, conn, req)
	default:
		s.sendWebSocketError(conn, req.RequestID, "invalid_request", "Unsupported message type: "+req.Type)
	}
}

func (s *Server) processWebSocketImage(ctx context.Context, conn WebSocketConnWriter, req WebSocketRequest) {
	if !s.pipeline.HasOCR() {
		s.sendWebSocketError(conn, req.RequestID, "unavailable", "OCR backend not available")
		return
	}
	if len(req.Image) == 0 {
		s.sendWebSocketError(conn, req.RequestID, "invalid_request", "No image data provided")
		return
	}
	img, _, err := utils.DecodeImage(bytes.NewReader(req.Image))
	if err != nil {
		s.sendWebSocketError(conn, req.RequestID, "invalid_request", fmt.Sprintf("Failed to decode image: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	doc := s.pipeline.ProcessImage(ctx, sourceName(req.Source, "websocket"), img)
	recordExtraction("websocket_image", doc, time.Since(start))
	s.sendWebSocketResult(conn, req.RequestID, &ExtractResponse{
		Success:   doc.Status != pipeline.StatusError,
		RequestID: req.RequestID,
		Fields:    doc.Record.Order,
		Document:  &doc,
		Error:     doc.Error,
	})
}

func (s *Server) sendWebSocketResult(conn WebSocketConnWriter, requestID string, res *ExtractResponse) {
	status := "completed"
	if !res.Success {
		status = "failed"
	}
	s.sendWebSocketResponse(conn, WebSocketResponse{
		Type:      MessageResult,
		RequestID: requestID,
		Status:    status,
		Result:    res,
	})
}

// sendWebSocketError sends an error message over WebSocket.
func (s *Server) sendWebSocketError(conn WebSocketConnWriter, requestID, errorType, message string) {
	s.sendWebSocketResponse(conn, WebSocketResponse{
		Type:      MessageError,
		RequestID: requestID,
		Status:    "error",
		Error:     message,
		ErrorType: errorType,
	})
}

// sendWebSocketResponse sends a response message over WebSocket.
func (s *Server) sendWebSocketResponse(conn WebSocketConnWriter, response WebSocketResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		s.logger.Error("failed to marshal WebSocket response", "error", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.logger.Error("failed to send WebSocket message", "error", err)
		return
	}
	websocketMessagesTotal.WithLabelValues("sent").Inc()
}
