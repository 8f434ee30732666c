package twitter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const maxFollowingPages = 10

// Following lists the account ids userID follows, walking the bottom cursor.
func (s *Session) Following(ctx context.Context, userID string) ([]string, error) {
	var (
		ids    []string
		seen   = make(map[string]struct{})
		cursor string
	)
	for page := 0; page < maxFollowingPages; page++ {
		vars := map[string]any{"userId": userID, "count": 100, "includePromotedContent": false}
		if cursor != "" {
			vars["cursor"] = cursor
		}
		var out struct {
			Data struct {
				User struct {
					Result struct {
						Timeline struct {
							Timeline struct {
								Instructions []instruction `json:"instructions"`
							} `json:"timeline"`
						} `json:"timeline"`
					} `json:"result"`
				} `json:"user"`
			} `json:"data"`
		}
		if err := s.graphqlGET(ctx, queryFollowing, vars, timelineFeatures, nil, &out); err != nil {
			return nil, fmt.Errorf("list following: %w", err)
		}

		added := 0
		next := ""
		for _, ins := range out.Data.User.Result.Timeline.Timeline.Instructions {
			for _, e := range ins.Entries {
				switch {
				case strings.HasPrefix(e.EntryID, "user-"):
					ic := e.Content.ItemContent
					if ic == nil || ic.UserResults.Result == nil || ic.UserResults.Result.RestID == "" {
						continue
					}
					id := ic.UserResults.Result.RestID
					if _, dup := seen[id]; dup {
						continue
					}
					seen[id] = struct{}{}
					ids = append(ids, id)
					added++
				case strings.HasPrefix(e.EntryID, "cursor-bottom-"):
					next = e.Content.Value
				}
			}
		}
		if added == 0 || next == "" || next == cursor {
			break
		}
		cursor = next
	}
	return ids, nil
}

// Follow follows userID. Following an already followed account is a no-op on the platform.
func (s *Session) Follow(ctx context.Context, userID string) error {
	return s.friendship(ctx, "create", userID)
}

// Unfollow stops following userID.
func (s *Session) Unfollow(ctx context.Context, userID string) error {
	return s.friendship(ctx, "destroy", userID)
}

func (s *Session) friendship(ctx context.Context, action, userID string) error {
	form := url.Values{}
	for _, flag := range []string{
		"include_profile_interstitial_type", "include_blocking", "include_blocked_by",
		"include_followed_by", "include_want_retweets", "include_mute_edge", "include_can_dm",
		"include_can_media_tag", "include_ext_is_blue_verified", "include_ext_verified_type",
		"include_ext_profile_image_shape", "skip_status",
	} {
		form.Set(flag, "1")
	}
	form.Set("user_id", userID)

	endpoint := fmt.Sprintf("%s/i/api/1.1/friendships/%s.json", s.client.webBase, action)
	req, err := s.newRequest(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(req, "friendships/"+action, nil)
}
