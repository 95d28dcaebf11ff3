package memo

// Guidance is the fixed editor-facing explanation of bucket semantics and
// ordering heuristics. It is forwarded verbatim into the selection prompt,
// so it must stay stable and deterministic across runs.
const Guidance = `PRIORITY BUCKET SEMANTICS:
- P0 (followed creators): items from sources the reader explicitly trusts. Include every P0 item unless it is a flagged duplicate or ad.
- P1 (hot topics): items from clusters spanning two or more publishers. Cross-publisher coverage signals real news; prefer the clearest single account of each topic.
- P2 (single-source topics): topical clusters from one publisher. Worth one representative item when the theme matches the reader's interests.
- P3 (everything else): unclustered long tail. Pick from here only to fill gaps or surface an unusual find.

SUGGESTED ORDERING:
1. Lead with urgent P0 items, then urgent P1 topics with high confidence.
2. Group the remaining selections by topic, strongest multi-source signals first.
3. Prefer higher trust_level and higher cluster confidence when items compete.
4. Avoid selecting more than one item flagged is_duplicate or is_ad; prefer unflagged alternatives.`
