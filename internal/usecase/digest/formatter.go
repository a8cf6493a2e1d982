package digest

import (
	"fmt"
	"html"
	"strings"

	"industry-mailer/internal/domain"
)

const newsletterStyle = `body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
.header { background-color: #4CAF50; color: white; padding: 20px; text-align: center; border-radius: 5px; }
.article { border-bottom: 1px solid #eee; padding: 20px 0; }
.article:last-child { border-bottom: none; }
.article h2 { color: #4CAF50; margin-top: 0; }
.article img { max-width: 100%; height: auto; border-radius: 5px; }
.source { color: #666; font-size: 0.9em; }
.read-more { display: inline-block; background-color: #4CAF50; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px; margin-top: 10px; }
.footer { text-align: center; margin-top: 40px; padding-top: 20px; border-top: 1px solid #eee; color: #666; font-size: 0.9em; }`

// NewsletterSubject формирует тему письма.
func NewsletterSubject(topicName string) string {
	return topicName + " Industry Newsletter - Top Stories"
}

// RenderNewsletter формирует HTML письма. Функция детерминирована: одинаковый вход даёт одинаковый документ.
func RenderNewsletter(topicName string, articles []domain.Article) string {
	topic := escapeHTML(topicName)

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<style>\n")
	b.WriteString(newsletterStyle)
	b.WriteString("\n</style>\n</head>\n<body>\n")
	fmt.Fprintf(&b, "<div class=\"header\">\n<h1>%s Industry Newsletter</h1>\n<p>Your latest industry news digest</p>\n</div>\n", topic)

	for i, a := range articles {
		b.WriteString("<div class=\"article\">\n")
		fmt.Fprintf(&b, "<h2>%d. %s</h2>\n", i+1, escapeHTML(a.Title))
		fmt.Fprintf(&b, "<p class=\"source\">Source: %s | Published: %s</p>\n", escapeHTML(a.Source), escapeHTML(a.PublishedAt))
		if a.ImageURL != "" {
			fmt.Fprintf(&b, "<img src=\"%s\" alt=\"Article Image\">\n", escapeHTML(a.ImageURL))
		}
		fmt.Fprintf(&b, "<p class=\"summary\">%s</p>\n", escapeHTML(summaryOrDescription(a)))
		fmt.Fprintf(&b, "<p>%s</p>\n", escapeHTML(a.Description))
		fmt.Fprintf(&b, "<a href=\"%s\" class=\"read-more\" target=\"_blank\">Read Full Article</a>\n", escapeHTML(a.URL))
		b.WriteString("</div>\n")
	}

	fmt.Fprintf(&b, "<div class=\"footer\">\n<p>This newsletter was sent to you because you subscribed to %s updates.</p>\n", topic)
	b.WriteString("<p>If you wish to unsubscribe, please contact us.</p>\n</div>\n</body>\n</html>\n")
	return b.String()
}

// RenderNewsletterText формирует текстовую альтернативу письма.
// Это сокращённая версия: без картинок и без полного описания статьи.
func RenderNewsletterText(topicName string, articles []domain.Article) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s Industry Newsletter\nYour latest industry news digest\n\n", topicName)
	for i, a := range articles {
		fmt.Fprintf(&b, "%d. %s\n", i+1, a.Title)
		fmt.Fprintf(&b, "Source: %s | Published: %s\n", a.Source, a.PublishedAt)
		if s := summaryOrDescription(a); s != "" {
			b.WriteString(s + "\n")
		}
		b.WriteString("Read Full Article: " + a.URL + "\n\n")
	}
	fmt.Fprintf(&b, "This newsletter was sent to you because you subscribed to %s updates.\n", topicName)
	return b.String()
}

func summaryOrDescription(a domain.Article) string {
	if s := strings.TrimSpace(a.Summary); s != "" {
		return s
	}
	return a.Description
}

func escapeHTML(s string) string {
	return html.EscapeString(s)
}
