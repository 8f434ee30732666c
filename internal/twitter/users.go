package twitter

import (
	"context"
	"fmt"
	"net/url"
)

// UserID resolves a screen name to the platform's numeric account id.
func (s *Session) UserID(ctx context.Context, handle string) (string, error) {
	vars := map[string]any{"screen_name": handle, "withSafetyModeUserFields": false}
	extra := url.Values{}
	extra.Set("fieldToggles", `{"withAuxiliaryUserLabels":false}`)

	var out struct {
		Data struct {
			User struct {
				Result *userResult `json:"result"`
			} `json:"user"`
		} `json:"data"`
	}
	if err := s.graphqlGET(ctx, queryUserByScreenName, vars, userFeatures, extra, &out); err != nil {
		return "", fmt.Errorf("resolve @%s: %w", handle, err)
	}
	if out.Data.User.Result == nil || out.Data.User.Result.RestID == "" {
		return "", fmt.Errorf("resolve @%s: user not found", handle)
	}
	return out.Data.User.Result.RestID, nil
}
