package tmdb

// Image is one entry of an images response.
type Image struct {
	AspectRatio float64 `json:"aspect_ratio"`
	FilePath    string  `json:"file_path"`
	Height      int     `json:"height"`
	Width       int     `json:"width"`
	Language    *string `json:"iso_639_1"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int     `json:"vote_count"`
}

// ImagesResponse is returned by /collection/{id}/images and /movie/{id}/images.
type ImagesResponse struct {
	ID        int     `json:"id"`
	Posters   []Image `json:"posters"`
	Backdrops []Image `json:"backdrops"`
}

// Part is a movie belonging to a collection.
type Part struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	ReleaseDate string `json:"release_date"`
	PosterPath  string `json:"poster_path"`
}

// Collection is returned by /collection/{id}.
type Collection struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Overview     string `json:"overview"`
	PosterPath   string `json:"poster_path"`
	BackdropPath string `json:"backdrop_path"`
	Parts        []Part `json:"parts"`
}

// Movie is the subset of /movie/{id} used for franchise lookups.
type Movie struct {
	ID                  int    `json:"id"`
	Title               string `json:"title"`
	PosterPath          string `json:"poster_path"`
	BackdropPath        string `json:"backdrop_path"`
	BelongsToCollection *struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"belongs_to_collection"`
}
