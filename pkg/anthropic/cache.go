package anthropic

// CachedSystem returns text as a single system block with a cache
// breakpoint. Every request of a run shares the same instructions, so after
// the first call they are read from the prompt cache.
func CachedSystem(text string) []SystemBlock {
	if text == "" {
		return nil
	}
	return []SystemBlock{
		{
			Text:         text,
			CacheControl: &CacheControl{TTL: "5m"},
		},
	}
}
