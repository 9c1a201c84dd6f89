package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/vesaki/vesaki-server/utils"
)

// ChatGreeting opens every styling-assistant conversation.
const ChatGreeting = "Hi! I'm your personal styling assistant. I can help you find the perfect outfit for any occasion. What are you looking for today?"

// ChatHandler handles POST /api/chat. Replies are scripted; a conversational
// model may replace this later without changing the wire shape.
func (s *Server) ChatHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Chat API]")

	if r.Method != http.MethodPost {
		utils.RespondError(w, &logMessageBuilder, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, &logMessageBuilder, "Invalid request body", http.StatusBadRequest)
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		utils.RespondJSON(w, http.StatusOK, map[string]string{
			"role":    "assistant",
			"content": ChatGreeting,
		})
		return
	}

	reply := fmt.Sprintf("Great! Based on your request for %q, I'd recommend checking out some of our latest collections. Let me show you some options that match your style!", req.Message)

	utils.AddToLogMessage(&logMessageBuilder, "Replied to chat message")
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"role":    "assistant",
		"content": reply,
	})
}
