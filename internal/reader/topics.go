package reader

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// topicLink is the raw data harvested for one listing link.
type topicLink struct {
	Title string `json:"title"`
	Href  string `json:"href"`
}

// harvestTopicsJS walks the selector list in order; the first selector that
// matches anything supplies the candidates.
const harvestTopicsJS = `(function(sels) {
	for (const sel of sels) {
		let nodes;
		try { nodes = document.querySelectorAll(sel); } catch (e) { continue; }
		if (!nodes.length) continue;
		const out = [];
		nodes.forEach(function(el) {
			out.push({
				title: (el.textContent || '').trim(),
				href: el.href || ''
			});
		});
		return out;
	}
	return [];
})(%s)`

// pickTopic loads the listing page and selects one readable topic at random.
func (r *Reader) pickTopic(ctx context.Context) (topicLink, error) {
	if err := r.session.Navigate(ctx, r.site.BaseURL); err != nil {
		return topicLink{}, fmt.Errorf("load topic list: %w", err)
	}
	if err := r.sleep(ctx, 3*time.Second); err != nil {
		return topicLink{}, err
	}

	links, err := r.collectTopics(ctx)
	if err != nil {
		return topicLink{}, err
	}

	valid := filterTopics(links, r.site.BaseURL)
	if len(valid) == 0 {
		return topicLink{}, fmt.Errorf("no topic links found on %s", r.site.BaseURL)
	}

	picked := valid[r.rng.Intn(len(valid))]
	r.log.Info("topic selected", "title", picked.Title, "url", picked.Href, "candidates", len(valid))
	return picked, nil
}

// collectTopics harvests candidate links in one page round trip.
func (r *Reader) collectTopics(ctx context.Context) ([]topicLink, error) {
	sels, err := json.Marshal(r.site.TopicSelectors)
	if err != nil {
		return nil, err
	}

	var links []topicLink
	if err := r.session.Evaluate(ctx, fmt.Sprintf(harvestTopicsJS, sels), &links); err != nil {
		return nil, fmt.Errorf("collect topic links: %w", err)
	}
	return links, nil
}

// filterTopics keeps links that stay on the site, carry a title, and have
// not been seen earlier in the batch.
func filterTopics(links []topicLink, baseURL string) []topicLink {
	seen := make(map[string]bool, len(links))
	valid := make([]topicLink, 0, len(links))

	for _, l := range links {
		title := strings.TrimSpace(l.Title)
		if title == "" || l.Href == "" {
			continue
		}
		if !strings.HasPrefix(l.Href, baseURL) {
			continue
		}
		if seen[l.Href] {
			continue
		}
		seen[l.Href] = true
		valid = append(valid, topicLink{Title: title, Href: l.Href})
	}
	return valid
}
