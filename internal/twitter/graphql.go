package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// GraphQL query ids used by the twitter.com web client.
const (
	queryUserByScreenName   = "NimuplG1OB7Fd2btCLdBOw/UserByScreenName"
	queryFollowing          = "2vUj-_Ek-UmBVDNtd8OnQA/Following"
	queryHomeLatestTimeline = "U0cdisy7QFIoTfu3-Okw0A/HomeLatestTimeline"
)

var timelineFeatures = map[string]bool{
	"creator_subscriptions_tweet_preview_api_enabled":                         true,
	"c9s_tweet_anatomy_moderator_badge_enabled":                               true,
	"tweetypie_unmention_optimization_enabled":                                true,
	"responsive_web_edit_tweet_api_enabled":                                   true,
	"graphql_is_translatable_rweb_tweet_is_translatable_enabled":              true,
	"view_counts_everywhere_api_enabled":                                      true,
	"longform_notetweets_consumption_enabled":                                 true,
	"responsive_web_twitter_article_tweet_consumption_enabled":                true,
	"tweet_awards_web_tipping_enabled":                                        false,
	"longform_notetweets_rich_text_read_enabled":                              true,
	"longform_notetweets_inline_media_enabled":                                true,
	"rweb_video_timestamps_enabled":                                           true,
	"responsive_web_graphql_exclude_directive_enabled":                        true,
	"verified_phone_label_enabled":                                            false,
	"freedom_of_speech_not_reach_fetch_enabled":                               true,
	"standardized_nudges_misinfo":                                             true,
	"tweet_with_visibility_results_prefer_gql_limited_actions_policy_enabled": true,
	"responsive_web_media_download_video_enabled":                             false,
	"responsive_web_graphql_skip_user_profile_image_extensions_enabled":       false,
	"responsive_web_graphql_timeline_navigation_enabled":                      true,
	"responsive_web_enhance_cards_enabled":                                    false,
}

var userFeatures = map[string]bool{
	"hidden_profile_likes_enabled":                                      true,
	"hidden_profile_subscriptions_enabled":                              true,
	"responsive_web_graphql_exclude_directive_enabled":                  true,
	"verified_phone_label_enabled":                                      false,
	"subscriptions_verification_info_is_identity_verified_enabled":      true,
	"subscriptions_verification_info_verified_since_enabled":            true,
	"highlights_tweets_tab_ui_enabled":                                  true,
	"responsive_web_twitter_article_notes_tab_enabled":                  false,
	"creator_subscriptions_tweet_preview_api_enabled":                   true,
	"responsive_web_graphql_skip_user_profile_image_extensions_enabled": false,
	"responsive_web_graphql_timeline_navigation_enabled":                true,
}

// Timeline payload shapes shared by the Following and HomeLatestTimeline queries.
type instruction struct {
	Type    string  `json:"type"`
	Entries []entry `json:"entries"`
}

type entry struct {
	EntryID string       `json:"entryId"`
	Content entryContent `json:"content"`
}

type entryContent struct {
	ItemContent *itemContent `json:"itemContent"`
	Items       []struct {
		Item struct {
			ItemContent *itemContent `json:"itemContent"`
		} `json:"item"`
	} `json:"items"`
	CursorType string `json:"cursorType"`
	Value      string `json:"value"`
}

type itemContent struct {
	TweetResults struct {
		Result *tweetResult `json:"result"`
	} `json:"tweet_results"`
	UserResults struct {
		Result *userResult `json:"result"`
	} `json:"user_results"`
}

type tweetResult struct {
	Typename string       `json:"__typename"`
	Legacy   *tweetLegacy `json:"legacy"`
	Tweet    *tweetResult `json:"tweet"` // TweetWithVisibilityResults wrapper
}

type tweetLegacy struct {
	UserID   string `json:"user_id_str"`
	ID       string `json:"id_str"`
	FullText string `json:"full_text"`
}

type userResult struct {
	RestID string `json:"rest_id"`
}

func (r *tweetResult) legacy() *tweetLegacy {
	for r != nil {
		if r.Legacy != nil {
			return r.Legacy
		}
		r = r.Tweet
	}
	return nil
}

func (s *Session) graphqlGET(ctx context.Context, query string, variables any, features map[string]bool, extra url.Values, out any) error {
	vars, err := json.Marshal(variables)
	if err != nil {
		return fmt.Errorf("encode variables: %w", err)
	}
	feats, err := json.Marshal(features)
	if err != nil {
		return fmt.Errorf("encode features: %w", err)
	}
	q := url.Values{}
	q.Set("variables", string(vars))
	q.Set("features", string(feats))
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	endpoint := fmt.Sprintf("%s/i/api/graphql/%s?%s", s.client.webBase, query, q.Encode())
	req, err := s.newRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return s.do(req, query, out)
}
