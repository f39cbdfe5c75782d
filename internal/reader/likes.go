package reader

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/zduu/star-auto/internal/types"
)

// likeButton is the state of one like control as harvested from the page.
// PositionKey is page-absolute, so it stays stable while scrolling.
type likeButton struct {
	PositionKey string `json:"positionKey"`
	Class       string `json:"class"`
	Title       string `json:"title"`
	AriaPressed string `json:"ariaPressed"`
}

// harvestLikesJS collects every like control that is inside the viewport and
// enabled, across all selector variants, deduplicated by position.
const harvestLikesJS = `(function(sels) {
	const out = [];
	const seen = new Set();
	const vh = window.innerHeight;
	for (const sel of sels) {
		let nodes;
		try { nodes = document.querySelectorAll(sel); } catch (e) { continue; }
		nodes.forEach(function(el) {
			const r = el.getBoundingClientRect();
			if (!r.width || !r.height) return;
			if (r.bottom <= 0 || r.top >= vh) return;
			if (el.disabled) return;
			const key = Math.round(r.left + window.pageXOffset) + '_' + Math.round(r.top + window.pageYOffset);
			if (seen.has(key)) return;
			seen.add(key);
			out.push({
				positionKey: key,
				class: el.getAttribute('class') || '',
				title: el.getAttribute('title') || '',
				ariaPressed: el.getAttribute('aria-pressed') || ''
			});
		});
	}
	return out;
})(%s)`

// scrollToLikeJS centers the control for a position key. Returns false when
// the control is gone (the page re-rendered since the harvest).
const scrollToLikeJS = `(function(sels, key) {
	for (const sel of sels) {
		let nodes;
		try { nodes = document.querySelectorAll(sel); } catch (e) { continue; }
		for (const el of nodes) {
			const r = el.getBoundingClientRect();
			const k = Math.round(r.left + window.pageXOffset) + '_' + Math.round(r.top + window.pageYOffset);
			if (k === key) {
				el.scrollIntoView({block: 'center'});
				return true;
			}
		}
	}
	return false;
})(%s, %s)`

// clickLikeJS clicks the control for a position key via the page's own
// click handler, which keeps the event indistinguishable from a user click
// as far as the frontend framework is concerned.
const clickLikeJS = `(function(sels, key) {
	for (const sel of sels) {
		let nodes;
		try { nodes = document.querySelectorAll(sel); } catch (e) { continue; }
		for (const el of nodes) {
			const r = el.getBoundingClientRect();
			const k = Math.round(r.left + window.pageXOffset) + '_' + Math.round(r.top + window.pageYOffset);
			if (k === key) {
				el.click();
				return true;
			}
		}
	}
	return false;
})(%s, %s)`

// likeVisiblePosts likes the controls currently in view that the ledger has
// not seen and that are not already activated. Finding nothing is not an
// error; topics without likeable posts are common.
func (r *Reader) likeVisiblePosts(ctx context.Context, topicURL string) (int, error) {
	if !r.params.Like {
		return 0, nil
	}

	buttons, err := r.collectLikeButtons(ctx)
	if err != nil {
		return 0, err
	}
	pending := pendingLikes(buttons, r.clicked)
	if len(pending) == 0 {
		return 0, nil
	}

	liked := 0
	for _, b := range pending {
		clicked, err := r.clickLike(ctx, b.PositionKey)
		if err != nil {
			return liked, err
		}
		r.clicked[b.PositionKey] = true
		if !clicked {
			r.log.Debug("like control vanished before click", "position", b.PositionKey)
			continue
		}

		liked++
		r.log.Info("post liked", "topic", topicURL, "position", b.PositionKey)
		if r.history != nil {
			ev := types.LikeEvent{TopicURL: topicURL, PositionKey: b.PositionKey, At: time.Now()}
			if herr := r.history.SaveLike(r.sessionID, ev); herr != nil {
				r.log.Warn("like not recorded", "error", herr)
			}
		}

		if err := r.sleepRange(ctx, 1, 1.5); err != nil {
			return liked, err
		}
	}
	return liked, nil
}

// pendingLikes filters the harvested buttons down to the ones worth
// clicking, marking already-activated controls in the ledger so later
// passes skip them without another look.
func pendingLikes(buttons []likeButton, ledger map[string]bool) []likeButton {
	var pending []likeButton
	for _, b := range buttons {
		if ledger[b.PositionKey] {
			continue
		}
		if isObviouslyLiked(b) {
			ledger[b.PositionKey] = true
			continue
		}
		pending = append(pending, b)
	}
	return pending
}

// isObviouslyLiked checks only the strongest already-liked markers;
// anything subtler risks false positives across Discourse themes.
func isObviouslyLiked(b likeButton) bool {
	if strings.Contains(strings.ToLower(b.Class), "liked") {
		return true
	}
	title := strings.ToLower(b.Title)
	if strings.Contains(title, "unlike") {
		return true
	}
	if strings.Contains(b.Title, "取消") || strings.Contains(b.Title, "已赞") {
		return true
	}
	return b.AriaPressed == "true"
}

func (r *Reader) collectLikeButtons(ctx context.Context) ([]likeButton, error) {
	sels, err := json.Marshal(r.site.LikeSelectors)
	if err != nil {
		return nil, err
	}

	var buttons []likeButton
	if err := r.session.Evaluate(ctx, fmt.Sprintf(harvestLikesJS, sels), &buttons); err != nil {
		return nil, fmt.Errorf("collect like buttons: %w", err)
	}
	return buttons, nil
}

// clickLike centers the control, lets the scroll settle, then clicks.
// Returns false when the control cannot be found anymore.
func (r *Reader) clickLike(ctx context.Context, key string) (bool, error) {
	sels, err := json.Marshal(r.site.LikeSelectors)
	if err != nil {
		return false, err
	}
	keyJSON, err := json.Marshal(key)
	if err != nil {
		return false, err
	}

	var found bool
	if err := r.session.Evaluate(ctx, fmt.Sprintf(scrollToLikeJS, sels, keyJSON), &found); err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	if err := r.sleep(ctx, 500*time.Millisecond); err != nil {
		return false, err
	}

	if err := r.session.Evaluate(ctx, fmt.Sprintf(clickLikeJS, sels, keyJSON), &found); err != nil {
		return false, err
	}
	return found, nil
}
