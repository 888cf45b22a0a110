package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/franciscosanchezn/gin-chat-auth/internal/credentials"
	"github.com/franciscosanchezn/gin-chat-auth/internal/deviceflow"
)

// Describe turns a command error into the single line shown to the user
func Describe(err error) string {
	var serverErr *deviceflow.ServerError

	switch {
	case errors.Is(err, credentials.ErrUnauthenticated):
		return "You are not logged in. Run `chat login` first."
	case errors.Is(err, deviceflow.ErrAccessDenied):
		return "Login was denied in the browser."
	case errors.Is(err, deviceflow.ErrExpiredToken):
		return "The code expired before it was approved. Run `chat login` to get a new one."
	case errors.Is(err, deviceflow.ErrTimeout):
		return "Timed out waiting for approval. Run `chat login` to try again."
	case errors.Is(err, context.Canceled):
		return "Login cancelled."
	case errors.Is(err, deviceflow.ErrProtocol):
		return fmt.Sprintf("Unexpected response from the server: %v", err)
	case errors.As(err, &serverErr):
		if serverErr.Description == "" {
			return fmt.Sprintf("The server rejected the login: %s", serverErr.Code)
		}
		return fmt.Sprintf("The server rejected the login: %s (%s)", serverErr.Code, serverErr.Description)
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}
