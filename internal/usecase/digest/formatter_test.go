package digest

import (
	"strings"
	"testing"

	"industry-mailer/internal/domain"
)

func sampleArticles() []domain.Article {
	return []domain.Article{
		{
			Title:       "Solar output hits record",
			Description: "Panels produced more power than ever.",
			URL:         "https://news.example/solar",
			Source:      "Energy Daily",
			PublishedAt: "2024-03-10T10:00:00Z",
			ImageURL:    "https://news.example/solar.png",
			Summary:     "Solar set a record.",
		},
		{
			Title:       "Oil <prices> & demand",
			Description: "Demand rose.",
			URL:         "https://news.example/oil?a=1&b=2",
			Source:      "Wire",
			PublishedAt: "2024-03-09",
		},
	}
}

func TestRenderNewsletter(t *testing.T) {
	doc := RenderNewsletter("Energy", sampleArticles())

	mustContain(t, doc, "<h1>Energy Industry Newsletter</h1>")
	mustContain(t, doc, "<h2>1. Solar output hits record</h2>")
	mustContain(t, doc, "Source: Energy Daily | Published: 2024-03-10T10:00:00Z")
	mustContain(t, doc, `<img src="https://news.example/solar.png" alt="Article Image">`)
	mustContain(t, doc, `<p class="summary">Solar set a record.</p>`)
	mustContain(t, doc, "<p>Panels produced more power than ever.</p>")
	mustContain(t, doc, `<a href="https://news.example/solar" class="read-more" target="_blank">Read Full Article</a>`)
	mustContain(t, doc, "<h2>2. Oil &lt;prices&gt; &amp; demand</h2>")
	mustContain(t, doc, `href="https://news.example/oil?a=1&amp;b=2"`)
	mustContain(t, doc, `<p class="summary">Demand rose.</p>`)
	mustContain(t, doc, "because you subscribed to Energy updates.")

	if strings.Count(doc, "<img") != 1 {
		t.Fatal("изображение должно выводиться только при наличии image_url")
	}
	if strings.Index(doc, "1. Solar") > strings.Index(doc, "2. Oil") {
		t.Fatal("порядок статей нарушен")
	}
}

func TestRenderNewsletterDeterministic(t *testing.T) {
	if RenderNewsletter("Energy", sampleArticles()) != RenderNewsletter("Energy", sampleArticles()) {
		t.Fatal("рендер должен быть детерминированным")
	}
}

func TestRenderNewsletterEscapesTopic(t *testing.T) {
	doc := RenderNewsletter(`<script>alert("x")</script>`, nil)
	if strings.Contains(doc, "<script>") {
		t.Fatal("имя темы должно экранироваться")
	}
}

func TestRenderNewsletterText(t *testing.T) {
	text := RenderNewsletterText("Energy", sampleArticles())
	mustContain(t, text, "1. Solar output hits record")
	mustContain(t, text, "Read Full Article: https://news.example/oil?a=1&b=2")
	if NewsletterSubject("Energy") != "Energy Industry Newsletter - Top Stories" {
		t.Fatalf("неожиданная тема письма: %s", NewsletterSubject("Energy"))
	}
}

func mustContain(t *testing.T, s, substr string) {
	t.Helper()
	if !strings.Contains(s, substr) {
		t.Fatalf("ожидали найти подстроку %q в %q", substr, s)
	}
}
