package playlist

import (
	"cmp"
	"slices"

	"github.com/desertthunder/jukebox/internal/models"
)

// CompareSongs orders two songs by column in the given direction.
//
// Equal keys compare as 0 whatever the direction, as does [models.SortNone].
func CompareSongs(a, b models.Song, column models.SortColumn, direction models.SortDirection) int {
	c := compareColumn(a, b, column)
	if c == 0 {
		return 0
	}

	switch direction {
	case models.SortAscending:
		return c
	case models.SortDescending:
		return -c
	default:
		return 0
	}
}

func compareColumn(a, b models.Song, column models.SortColumn) int {
	switch column {
	case models.ColumnTitle:
		return cmp.Compare(a.Title, b.Title)
	case models.ColumnArtist:
		return cmp.Compare(a.Artist, b.Artist)
	case models.ColumnAlbum:
		return cmp.Compare(a.Album, b.Album)
	case models.ColumnDuration:
		return cmp.Compare(a.Duration, b.Duration)
	case models.ColumnTrackNumber:
		return cmp.Compare(a.TrackNumber, b.TrackNumber)
	case models.ColumnDiscNumber:
		return cmp.Compare(a.DiscNumber, b.DiscNumber)
	default:
		return 0
	}
}

// sortSongs sorts in place; ties keep their membership order.
func sortSongs(songs []models.Song, column models.SortColumn, direction models.SortDirection) {
	slices.SortStableFunc(songs, func(a, b models.Song) int {
		return CompareSongs(a, b, column, direction)
	})
}

// FindNextSong returns the song after id in the resolved order, wrapping to the start.
//
// A song that is not in the list behaves as index -1, so its "next" is the first song.
func (p *Playlist) FindNextSong(id string) (models.Song, bool) {
	return findByOffset(p.songList(), id, 1)
}

// FindPreviousSong returns the song before id in the resolved order, wrapping to the end.
//
// A song that is not in the list behaves as index -1: for three or more songs its "previous" is
// the second to last song, otherwise the first.
func (p *Playlist) FindPreviousSong(id string) (models.Song, bool) {
	return findByOffset(p.songList(), id, -1)
}

// FindNextSongInShuffle is [Playlist.FindNextSong] over the shuffle snapshot.
func (p *Playlist) FindNextSongInShuffle(id string) (models.Song, bool) {
	return findByOffset(p.shuffleList(), id, 1)
}

// FindPreviousSongInShuffle is [Playlist.FindPreviousSong] over the shuffle snapshot.
func (p *Playlist) FindPreviousSongInShuffle(id string) (models.Song, bool) {
	return findByOffset(p.shuffleList(), id, -1)
}

// NextSong picks the shuffle or resolved order.
func (p *Playlist) NextSong(id string, shuffled bool) (models.Song, bool) {
	if shuffled {
		return p.FindNextSongInShuffle(id)
	}
	return p.FindNextSong(id)
}

// PreviousSong picks the shuffle or resolved order.
func (p *Playlist) PreviousSong(id string, shuffled bool) (models.Song, bool) {
	if shuffled {
		return p.FindPreviousSongInShuffle(id)
	}
	return p.FindPreviousSong(id)
}

// ShuffledSongs returns a copy of the current shuffle snapshot, generating it if needed.
func (p *Playlist) ShuffledSongs() []models.Song {
	return slices.Clone(p.shuffleList())
}

func (p *Playlist) shuffleList() []models.Song {
	songs := p.songList()
	if p.shuffled != nil && len(p.shuffled) == len(songs) {
		return p.shuffled
	}

	p.shuffled = slices.Clone(songs)
	intN := defaultIntN
	if p.store != nil {
		intN = p.store.intN
	}
	shuffle(p.shuffled, intN)
	return p.shuffled
}

// shuffle is a Fisher-Yates permutation: position i swaps with a uniform pick from [0, i].
func shuffle(songs []models.Song, intN func(int) int) {
	for i := len(songs) - 1; i > 0; i-- {
		j := intN(i + 1)
		songs[i], songs[j] = songs[j], songs[i]
	}
}

func findByOffset(list []models.Song, id string, offset int) (models.Song, bool) {
	n := len(list)
	if n == 0 {
		return models.Song{}, false
	}

	idx := slices.IndexFunc(list, func(s models.Song) bool { return s.ID == id })
	next := (idx + offset) % n
	if next < 0 {
		next += n
	}
	return list[next], true
}
