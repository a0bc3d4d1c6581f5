package archive

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ykudinov/docrouter/internal/core/domain"
)

// LeafDepth is the fixed depth of a routable archive leaf:
// category/subcategory/issuer/person.
const LeafDepth = 4

// Index enumerates the archive folder hierarchy. It is rebuilt per run,
// never mutated in place.
type Index struct {
	root string
}

func NewIndex(root string) (*Index, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve archive root: %w", err)
	}
	return &Index{root: abs}, nil
}

// Leaves returns every directory exactly LeafDepth levels below the root,
// slash-separated and sorted. A missing or empty archive yields an empty
// set, not an error.
func (ix *Index) Leaves(ctx context.Context) ([]string, error) {
	if _, err := os.Stat(ix.root); os.IsNotExist(err) {
		return []string{}, nil
	}

	leaves := []string{}
	var walk func(dir string, segments []string) error
	walk = func(dir string, segments []string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(segments) == LeafDepth {
			leaves = append(leaves, path.Join(segments...))
			return nil
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			return fmt.Errorf("scan %s: %w", dir, err)
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			if err := walk(filepath.Join(dir, entry.Name()), append(segments, entry.Name())); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(ix.root, nil); err != nil {
		return nil, err
	}
	sort.Strings(leaves)
	return leaves, nil
}

// Tree returns the full nested folder structure of any depth. The root
// node carries an empty relative path.
func (ix *Index) Tree(ctx context.Context) (domain.FolderNode, error) {
	if _, err := os.Stat(ix.root); os.IsNotExist(err) {
		return domain.FolderNode{Name: filepath.Base(ix.root), Children: []domain.FolderNode{}}, nil
	}
	return ix.buildNode(ctx, ix.root, "")
}

func (ix *Index) buildNode(ctx context.Context, dir, rel string) (domain.FolderNode, error) {
	if err := ctx.Err(); err != nil {
		return domain.FolderNode{}, err
	}

	node := domain.FolderNode{
		Name:     filepath.Base(dir),
		PathRel:  rel,
		Children: []domain.FolderNode{},
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return domain.FolderNode{}, fmt.Errorf("scan %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	sort.Slice(names, func(i, j int) bool {
		return strings.ToLower(names[i]) < strings.ToLower(names[j])
	})

	for _, name := range names {
		childRel := name
		if rel != "" {
			childRel = rel + "/" + name
		}
		child, err := ix.buildNode(ctx, filepath.Join(dir, name), childRel)
		if err != nil {
			return domain.FolderNode{}, err
		}
		node.Children = append(node.Children, child)
	}
	return node, nil
}
