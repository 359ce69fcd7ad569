package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
)

type Client struct {
	APIKey  string
	AgentID string
	HTTP    *http.Client
	BaseURL string
}

type ConversationRequest struct {
	PhoneNumber   string
	Name          string
	CallID        string
	BeneficiaryID string
}

type conversationPayload struct {
	AgentID             string            `json:"agent_id"`
	CustomerPhoneNumber string            `json:"customer_phone_number"`
	CustomerName        string            `json:"customer_name"`
	Metadata            map[string]string `json:"metadata"`
}

type ConversationResponse struct {
	ConversationID string `json:"conversation_id"`
	Status         string `json:"status"`
	Message        string `json:"message"`
	Detail         string `json:"detail"`
}

// CreateConversation asks the provider to place an outbound AI conversation.
// The metadata block echoes back on the completion webhook so the relay can
// correlate it even without the conversation id.
func (c *Client) CreateConversation(ctx context.Context, req ConversationRequest) (ConversationResponse, int, []byte, error) {
	payload := conversationPayload{
		AgentID:             c.AgentID,
		CustomerPhoneNumber: req.PhoneNumber,
		CustomerName:        req.Name,
		Metadata: map[string]string{
			"call_id":        req.CallID,
			"beneficiary_id": req.BeneficiaryID,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return ConversationResponse{}, 0, nil, err
	}

	baseURL := strings.TrimRight(c.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.elevenlabs.io"
	}
	endpoint := baseURL + "/v1/convai/conversations"
	httpReq, _ := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return ConversationResponse{}, 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)

	var out ConversationResponse
	_ = json.Unmarshal(b, &out)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail := out.Detail
		if detail == "" {
			detail = out.Message
		}
		if detail != "" {
			return out, resp.StatusCode, b, errors.New(detail)
		}
		return out, resp.StatusCode, b, errors.New("conversation create failed")
	}
	if out.ConversationID == "" {
		return out, resp.StatusCode, b, errors.New("missing conversation_id in response")
	}
	return out, resp.StatusCode, b, nil
}
