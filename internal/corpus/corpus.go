// Bookloft - Book Recommendation Service
// Copyright 2026 The Bookloft Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/bookloft/bookloft

package corpus

// User is a reader known to the corpus. Users are append-only; the only
// mutation anywhere in the system is appending new users (including the
// request-scoped visitor).
type User struct {
	// ID is the internal user identifier, assigned sequentially at load time.
	ID int `json:"id"`

	// Location is the free-text home location. Nil means unknown; a nil
	// location never matches any location query.
	Location *string `json:"location,omitempty"`

	// Age in years, if the source dataset carried one.
	Age *int `json:"age,omitempty"`

	// Source names the originating dataset (e.g. "bookcrossing", "goodbooks").
	Source string `json:"source,omitempty"`
}

// Book is a catalogue entry. Books are read-only within the engine;
// enrichment happens upstream during ingest.
type Book struct {
	// ID is the normalized book identifier (ISBN for Book-Crossing rows).
	ID string `json:"id"`

	// Title is the book title as carried by the primary dataset.
	Title string `json:"title"`

	// Authors is the author display string.
	Authors string `json:"authors,omitempty"`

	// Year is the publication year, zero if unknown.
	Year int `json:"year,omitempty"`

	// CoverURL references the cover image.
	CoverURL string `json:"cover_url,omitempty"`
}

// Rating is a single rating event. Zero is a valid rating value and must
// not be conflated with "unrated".
type Rating struct {
	// UserID references a User.ID in the same corpus.
	UserID int `json:"user_id"`

	// BookID references a Book.ID in the same corpus.
	BookID string `json:"book_id"`

	// Value is the rating value.
	Value float64 `json:"value"`

	// RaterCount is the rater's total number of ratings, denormalized onto
	// every rating row as a trust/engagement proxy. It must be recomputed
	// whenever ratings are appended for a user.
	RaterCount int `json:"rater_count"`
}

// Corpus is an immutable snapshot of the three tables.
type Corpus struct {
	Users   []User   `json:"users"`
	Books   []Book   `json:"books"`
	Ratings []Rating `json:"ratings"`
}

// NextUserID returns the id the next appended user will receive.
// Assignment is positional: count of existing users plus one. Loaders
// assign ids 1..N in insertion order, so this is always fresh.
func (c *Corpus) NextUserID() int {
	return len(c.Users) + 1
}

// WithVisitor returns a copy of the corpus with one extra user and one extra
// rating appended. The receiver is left byte-for-byte unchanged: Users and
// Ratings get fresh backing arrays, Books is shared because nothing appends
// to it.
func (c *Corpus) WithVisitor(user User, rating Rating) *Corpus {
	users := make([]User, len(c.Users), len(c.Users)+1)
	copy(users, c.Users)
	users = append(users, user)

	ratings := make([]Rating, len(c.Ratings), len(c.Ratings)+1)
	copy(ratings, c.Ratings)
	ratings = append(ratings, rating)

	return &Corpus{
		Users:   users,
		Books:   c.Books,
		Ratings: ratings,
	}
}

// BooksByTitle returns the ids of all books whose title exactly equals the
// given title, in corpus order. Multiple ids mean the title is ambiguous;
// callers decide how to handle that.
func (c *Corpus) BooksByTitle(title string) []string {
	var ids []string
	for i := range c.Books {
		if c.Books[i].Title == title {
			ids = append(ids, c.Books[i].ID)
		}
	}
	return ids
}

// Book returns the book with the given id.
func (c *Corpus) Book(id string) (Book, bool) {
	for i := range c.Books {
		if c.Books[i].ID == id {
			return c.Books[i], true
		}
	}
	return Book{}, false
}

// HasUser reports whether a user with the given id exists.
func (c *Corpus) HasUser(id int) bool {
	for i := range c.Users {
		if c.Users[i].ID == id {
			return true
		}
	}
	return false
}

// RaterCounts recomputes the per-user rating count from the rating events.
func RaterCounts(ratings []Rating) map[int]int {
	counts := make(map[int]int)
	for i := range ratings {
		counts[ratings[i].UserID]++
	}
	return counts
}
