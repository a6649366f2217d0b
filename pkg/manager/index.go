package manager

import (
	"slices"
	"strings"
	"sync"

	// Packages
	schema "github.com/mutablelogic/go-gallery/pkg/schema"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// index maps folder name to filename to image
type index struct {
	mu      sync.RWMutex
	folders map[string]map[string]schema.Image
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// put adds or replaces an image in a folder
func (idx *index) put(folder string, image schema.Image) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.folders == nil {
		idx.folders = make(map[string]map[string]schema.Image)
	}
	if idx.folders[folder] == nil {
		idx.folders[folder] = make(map[string]schema.Image)
	}
	idx.folders[folder][image.Filename] = image
}

// list returns the folders ordered by name, with images ordered by filename
func (idx *index) list() *schema.FolderList {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	result := &schema.FolderList{Folders: make([]schema.Folder, 0, len(idx.folders))}
	for name, images := range idx.folders {
		folder := schema.Folder{Name: name, Images: make([]schema.Image, 0, len(images))}
		for _, image := range images {
			folder.Images = append(folder.Images, image)
		}
		slices.SortFunc(folder.Images, func(a, b schema.Image) int {
			return strings.Compare(a.Filename, b.Filename)
		})
		result.Folders = append(result.Folders, folder)
	}
	slices.SortFunc(result.Folders, func(a, b schema.Folder) int {
		return strings.Compare(a.Name, b.Name)
	})
	return result
}
