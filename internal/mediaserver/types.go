package mediaserver

import "strings"

// Item is a library item (movie or collection).
type Item struct {
	ID             string            `json:"Id"`
	Name           string            `json:"Name"`
	Type           string            `json:"Type"`
	ProductionYear int               `json:"ProductionYear,omitempty"`
	ProviderIDs    map[string]string `json:"ProviderIds,omitempty"`
	ChildCount     int               `json:"ChildCount,omitempty"`
	ImageTags      map[string]string `json:"ImageTags,omitempty"`
}

// TMDBID returns the item's TMDb provider id, or "" if it has none.
func (i Item) TMDBID() string {
	for k, v := range i.ProviderIDs {
		if strings.EqualFold(k, "tmdb") {
			return v
		}
	}
	return ""
}

// HasImage reports whether the item has an image of the given type.
func (i Item) HasImage(imageType string) bool {
	return i.ImageTags[imageType] != ""
}

// ItemsResponse is a page of items.
type ItemsResponse struct {
	Items            []Item `json:"Items"`
	TotalRecordCount int    `json:"TotalRecordCount"`
	StartIndex       int    `json:"StartIndex"`
}

// SystemInfo is the subset of /System/Info shown to the user.
type SystemInfo struct {
	ServerName      string `json:"ServerName"`
	Version         string `json:"Version"`
	ID              string `json:"Id"`
	OperatingSystem string `json:"OperatingSystem"`
}

// collectionCreated is returned by POST /Collections.
type collectionCreated struct {
	ID string `json:"Id"`
}

// Image types accepted by UploadImage.
const (
	ImagePrimary  = "Primary"
	ImageBackdrop = "Backdrop"
)
