package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tmc-solana/lytra/internal/signal"
)

// LatestTimeline fetches the operator's "Following" home timeline. seen is passed to the
// platform as a hint of post ids the caller already has.
func (s *Session) LatestTimeline(ctx context.Context, count int, seen []string) ([]signal.Post, error) {
	if seen == nil {
		seen = []string{}
	}
	payload := map[string]any{
		"variables": map[string]any{
			"count":                  count,
			"includePromotedContent": true,
			"latestControlAvailable": true,
			"requestContext":         "launch",
			"withCommunity":          true,
			"seenTweetIds":           seen,
		},
		"queryId":  strings.SplitN(queryHomeLatestTimeline, "/", 2)[0],
		"features": timelineFeatures,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode timeline request: %w", err)
	}
	endpoint := fmt.Sprintf("%s/i/api/graphql/%s", s.client.webBase, queryHomeLatestTimeline)
	req, err := s.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var out struct {
		Data struct {
			Home struct {
				Timeline struct {
					Instructions []instruction `json:"instructions"`
				} `json:"home_timeline_urt"`
			} `json:"home"`
		} `json:"data"`
	}
	if err := s.do(req, "home timeline", &out); err != nil {
		return nil, err
	}
	return postsFromInstructions(out.Data.Home.Timeline.Instructions, time.Now().UTC()), nil
}

// postsFromInstructions flattens timeline entries into posts, keeping response order.
func postsFromInstructions(instructions []instruction, now time.Time) []signal.Post {
	var posts []signal.Post
	add := func(ic *itemContent) {
		if ic == nil {
			return
		}
		legacy := ic.TweetResults.Result.legacy()
		if legacy == nil || legacy.ID == "" || legacy.UserID == "" {
			return
		}
		posts = append(posts, signal.Post{AccountID: legacy.UserID, PostID: legacy.ID, Text: legacy.FullText, Ts: now})
	}
	for _, ins := range instructions {
		for _, e := range ins.Entries {
			switch {
			case strings.HasPrefix(e.EntryID, "tweet-"):
				add(e.Content.ItemContent)
			case strings.HasPrefix(e.EntryID, "home-conversation-"):
				for _, item := range e.Content.Items {
					add(item.Item.ItemContent)
				}
			}
		}
	}
	return posts
}
