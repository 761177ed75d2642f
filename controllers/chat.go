package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"concretera-backend/utils"

	"github.com/gin-gonic/gin"
)

const chatSystemPrompt = "Eres el asistente virtual de una empresa de concreto premezclado. " +
	"Respondes en español sobre presupuestos, pagos, facturas y productos de la empresa. " +
	"Si no sabes algo, dilo; no inventes precios ni condiciones comerciales."

type ChatInput struct {
	Message string `json:"message" binding:"required"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

var chatHTTPClient = &http.Client{Timeout: 30 * time.Second}

// Chat proxies a user message to the completion API with our system
// prompt injected. The upstream key never reaches the browser.
func Chat(c *gin.Context) {
	var input ChatInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	apiURL := os.Getenv("CHAT_API_URL")
	if apiURL == "" {
		utils.RespondWithError(c, http.StatusServiceUnavailable, "Chat is not configured")
		return
	}

	model := os.Getenv("CHAT_MODEL")
	if model == "" {
		model = "gpt-4o-mini"
	}

	payload, err := json.Marshal(chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: chatSystemPrompt},
			{Role: "user", Content: input.Message},
		},
	})
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to build chat request")
		return
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodPost, apiURL, bytes.NewReader(payload))
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to build chat request")
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+os.Getenv("CHAT_API_KEY"))

	resp, err := chatHTTPClient.Do(req)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadGateway, "Chat upstream unavailable")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		utils.RespondWithError(c, http.StatusBadGateway, "Chat upstream returned "+resp.Status)
		return
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil || len(parsed.Choices) == 0 {
		utils.RespondWithError(c, http.StatusBadGateway, "Unexpected chat upstream response")
		return
	}

	c.JSON(http.StatusOK, gin.H{"reply": parsed.Choices[0].Message.Content})
}
