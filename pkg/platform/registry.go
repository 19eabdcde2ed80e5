// Package platform holds the selector profiles of supported chat sites.
package platform

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Profile identifies a supported site and the selectors used to scrape it.
type Profile struct {
	ID              string `yaml:"id"`
	DisplayName     string `yaml:"name"`
	Domain          string `yaml:"domain"`
	ChatContainer   string `yaml:"chat_container"`
	Message         string `yaml:"message"`
	ActiveChatTitle string `yaml:"active_chat"`
	Attachment      string `yaml:"attachment"`
	Text            string `yaml:"text"`
	Timestamp       string `yaml:"timestamp"`
}

// Token is the primary domain up to its first dot: "whatsapp" for
// whatsapp.com, which matches web.whatsapp.com.
func (p Profile) Token() string {
	domain := strings.ToLower(p.Domain)
	if i := strings.IndexByte(domain, '.'); i >= 0 {
		return domain[:i]
	}
	return domain
}

var builtin = []Profile{
	{
		ID:              "whatsapp",
		DisplayName:     "WhatsApp",
		Domain:          "whatsapp.com",
		ChatContainer:   `[data-tab="1"], [data-testid="conversation-panel-body"]`,
		Message:         `[data-testid="msg-container"], .message-in, .message-out`,
		ActiveChatTitle: `[data-testid="conversation-header"] span[title], [data-testid="conversation-info-header"] span`,
		Attachment:      `[data-testid="media-link"], [data-testid="audio-link"], [data-testid="document-link"], a[href*="blob:"], a[href*="data:"]`,
		Text:            `.selectable-text span, [data-testid="conversation-compose-box-input"]`,
		Timestamp:       `[data-testid="msg-meta"] span, .msg-meta span`,
	},
	{
		ID:              "telegram",
		DisplayName:     "Telegram",
		Domain:          "telegram.org",
		ChatContainer:   `.messages-container, #column-center .scrollable`,
		Message:         `.message, .bubble`,
		ActiveChatTitle: `.chat-info .chat-title, .sidebar-header .person-title`,
		Attachment:      `.document, .media-container a, .webpage, .attachment`,
		Text:            `.message-content, .text-content`,
		Timestamp:       `.message-time, .time`,
	},
	{
		ID:              "slack",
		DisplayName:     "Slack",
		Domain:          "slack.com",
		ChatContainer:   `[data-qa="slack_kit_list"], .c-virtual_list__scroll_container`,
		Message:         `[data-qa="message"], .c-message_kit__background`,
		ActiveChatTitle: `[data-qa="channel_header"] .p-channel_header__title, .p-ia__sidebar_header__title`,
		Attachment:      `.c-file, .c-file_container, .c-link_preview, a[href*="files.slack.com"]`,
		Text:            `.c-message__body, .p-rich_text_section`,
		Timestamp:       `.c-timestamp, [data-qa="message_timestamp"]`,
	},
	{
		ID:              "teams",
		DisplayName:     "Microsoft Teams",
		Domain:          "teams.microsoft.com",
		ChatContainer:   `[data-tid="chat-pane-list"], .ui-chat__messagelist`,
		Message:         `[data-tid="chat-pane-item"], .ui-chat__item`,
		ActiveChatTitle: `[data-tid="chat-header"] .ui-text, .thread-header .ui-text`,
		Attachment:      `.ui-chat__file, .attachment-item, .ui-card`,
		Text:            `.ui-chat__messagecontent, [data-tid="messageBodyContent"]`,
		Timestamp:       `.ui-text__timestamp, [data-tid="timestamp"]`,
	},
	{
		ID:              "discord",
		DisplayName:     "Discord",
		Domain:          "discord.com",
		ChatContainer:   `[data-list-id="chat-messages"], .messagesWrapper-RQhkzn`,
		Message:         `[id*="chat-messages"] > li, .message-2CShn3`,
		ActiveChatTitle: `.title-17SveM, .channel-name`,
		Attachment:      `.attachment-1PZZB2, .embed-IeVjo6, .anchor-1MIwyf`,
		Text:            `.messageContent-2t3eCI, .markup-eYLPri`,
		Timestamp:       `.timestamp-p1Df1m, .timestampInline-_lS3aK`,
	},
}

// Registry is an ordered, read-only list of profiles.
type Registry struct {
	profiles []Profile
}

// Default returns the registry of built-in profiles.
func Default() *Registry {
	return &Registry{profiles: builtin}
}

// NewRegistry builds a registry from extra profiles followed by the built-in
// ones. Extra profiles take priority.
func NewRegistry(extra ...Profile) *Registry {
	profiles := make([]Profile, 0, len(extra)+len(builtin))
	profiles = append(profiles, extra...)
	profiles = append(profiles, builtin...)
	return &Registry{profiles: profiles}
}

// Profiles returns a copy of the table in priority order.
func (r *Registry) Profiles() []Profile {
	out := make([]Profile, len(r.profiles))
	copy(out, r.profiles)
	return out
}

// Resolve returns the first profile whose domain token occurs in hostname.
func (r *Registry) Resolve(hostname string) (Profile, bool) {
	host := strings.ToLower(strings.TrimSpace(hostname))
	if host == "" {
		return Profile{}, false
	}
	for _, p := range r.profiles {
		token := p.Token()
		if token != "" && strings.Contains(host, token) {
			return p, true
		}
	}
	return Profile{}, false
}

// ByID looks a profile up by its identifier.
func (r *Registry) ByID(id string) (Profile, bool) {
	id = strings.ToLower(strings.TrimSpace(id))
	for _, p := range r.profiles {
		if p.ID == id {
			return p, true
		}
	}
	return Profile{}, false
}

// Resolve looks hostname up in the built-in table.
func Resolve(hostname string) (Profile, bool) {
	return Default().Resolve(hostname)
}

// ActiveChatTitle returns the name of the open conversation, if the page
// shows one.
func ActiveChatTitle(doc *goquery.Document, p Profile) (string, bool) {
	if p.ActiveChatTitle == "" {
		return "", false
	}
	el := doc.Find(p.ActiveChatTitle).First()
	if el.Length() == 0 {
		return "", false
	}
	if text := strings.TrimSpace(el.Text()); text != "" {
		return text, true
	}
	if title, ok := el.Attr("title"); ok && title != "" {
		return title, true
	}
	return "Unknown Chat", true
}
