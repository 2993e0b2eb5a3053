package templates

import "strconv"

// Refresh asks the browser to navigate after a delay without script.
type Refresh struct {
	Seconds int
	URL     string
}

// LayoutOptions carries per-page layout settings.
type LayoutOptions struct {
	TitleKey string
	Refresh  *Refresh
}

func htmlLang(page PageContext) string {
	if page.Lang == "" {
		return "en-US"
	}
	return page.Lang
}

func refreshContent(refresh Refresh) string {
	return strconv.Itoa(refresh.Seconds) + ";url=" + refresh.URL
}

func noticeKind(n Notice) NoticeKind {
	if n.Kind == "" {
		return NoticeInfo
	}
	return n.Kind
}

// noticeRole makes errors interrupt assistive technology; everything else is polite.
func noticeRole(n Notice) string {
	if noticeKind(n) == NoticeError {
		return "alert"
	}
	return "status"
}
