package site

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/theme"
)

// stageRenderTaxonomies writes, for every declared taxonomy, a term index
// page plus one listing page per term containing exactly the posts carrying
// that term. Undeclared taxonomy keys in front-matter are reported as
// warnings, not failures.
func stageRenderTaxonomies(_ context.Context, bs *BuildState) error {
	g := bs.Generator
	var warnings []error

	for _, p := range bs.Content.Posts {
		for key := range p.Meta.Taxonomies {
			if !g.cfg.HasTaxonomy(key) {
				warnings = append(warnings, fmt.Errorf("%s: taxonomy %q is not declared in config", p.SourcePath, key))
			}
		}
	}

	for _, taxonomy := range g.cfg.Taxonomies {
		terms, byTerm, err := collectTerms(bs.Content.Posts, taxonomy)
		if err != nil {
			return err
		}

		for _, tv := range terms {
			page := &theme.Page{
				Site:     g.siteView(),
				Title:    tv.Term,
				Taxonomy: taxonomy,
				Term:     tv.Term,
				Posts:    postViews(byTerm[tv.Term]),
			}
			rel := taxonomy + "/" + content.Slugify(tv.Term) + "/index.html"
			if err := g.writePage(bs, rel, theme.KindTerm, page); err != nil {
				return err
			}
		}

		index := &theme.Page{
			Site:     g.siteView(),
			Title:    taxonomy,
			Taxonomy: taxonomy,
			Terms:    terms,
		}
		if err := g.writePage(bs, taxonomy+"/index.html", theme.KindTerms, index); err != nil {
			return err
		}
	}

	if len(warnings) > 0 {
		return newWarnStageError("render_taxonomies", errors.Join(warnings...))
	}
	return nil
}

// collectTerms groups posts by term under one taxonomy. Terms are sorted
// alphabetically; posts keep their global (newest first) order. Two distinct
// terms slugging to the same URL is a hard error since the pages would
// overwrite each other.
func collectTerms(posts []*content.Post, taxonomy string) ([]theme.TermView, map[string][]*content.Post, error) {
	byTerm := map[string][]*content.Post{}
	for _, p := range posts {
		for _, term := range p.Meta.Terms(taxonomy) {
			byTerm[term] = append(byTerm[term], p)
		}
	}

	terms := make([]string, 0, len(byTerm))
	for term := range byTerm {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	slugOwner := map[string]string{}
	views := make([]theme.TermView, 0, len(terms))
	for _, term := range terms {
		slug := content.Slugify(term)
		if other, ok := slugOwner[slug]; ok {
			return nil, nil, fmt.Errorf("taxonomy %s: terms %q and %q both map to %q", taxonomy, other, term, slug)
		}
		slugOwner[slug] = term
		views = append(views, theme.TermView{
			Term:  term,
			URL:   theme.TermURL(taxonomy, term),
			Count: len(byTerm[term]),
		})
	}
	return views, byTerm, nil
}
