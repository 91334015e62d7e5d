package source

import "strings"

// Breed is a cat breed known to TheCatAPI.
type Breed struct {
	ID   string
	Name string
}

// Breeds lists the breeds TheCatAPI can filter by.
var Breeds = []Breed{
	{"abys", "Abyssinian"},
	{"aege", "Aegean"},
	{"abob", "American Bobtail"},
	{"acur", "American Curl"},
	{"asho", "American Shorthair"},
	{"awir", "American Wirehair"},
	{"amau", "Arabian Mau"},
	{"amis", "Australian Mist"},
	{"bali", "Balinese"},
	{"bamb", "Bambino"},
	{"beng", "Bengal"},
	{"birm", "Birman"},
	{"bomb", "Bombay"},
	{"bslo", "British Longhair"},
	{"bsho", "British Shorthair"},
	{"bure", "Burmese"},
	{"buri", "Burmilla"},
	{"cspa", "California Spangled"},
	{"ctif", "Chantilly-Tiffany"},
	{"char", "Chartreux"},
	{"chau", "Chausie"},
	{"chee", "Cheetoh"},
	{"csho", "Colorpoint Shorthair"},
	{"crex", "Cornish Rex"},
	{"cymr", "Cymric"},
	{"cypr", "Cyprus"},
	{"drex", "Devon Rex"},
	{"dons", "Donskoy"},
	{"lihu", "Dragon Li"},
	{"emau", "Egyptian Mau"},
	{"ebur", "European Burmese"},
	{"esho", "Exotic Shorthair"},
	{"hbro", "Havana Brown"},
	{"hima", "Himalayan"},
	{"jbob", "Japanese Bobtail"},
	{"java", "Javanese"},
	{"khao", "Khao Manee"},
	{"kora", "Korat"},
	{"kuri", "Kurilian"},
	{"lape", "LaPerm"},
	{"mcoo", "Maine Coon"},
	{"mala", "Malayan"},
	{"manx", "Manx"},
	{"munc", "Munchkin"},
	{"nebe", "Nebelung"},
	{"norw", "Norwegian Forest Cat"},
	{"ocic", "Ocicat"},
	{"orie", "Oriental"},
	{"pers", "Persian"},
	{"pixi", "Pixie-bob"},
	{"raga", "Ragamuffin"},
	{"ragd", "Ragdoll"},
	{"rblu", "Russian Blue"},
	{"sava", "Savannah"},
	{"sfol", "Scottish Fold"},
	{"srex", "Selkirk Rex"},
	{"siam", "Siamese"},
	{"sibe", "Siberian"},
	{"sing", "Singapura"},
	{"snow", "Snowshoe"},
	{"soma", "Somali"},
	{"sphy", "Sphynx"},
	{"tonk", "Tonkinese"},
	{"toyg", "Toyger"},
	{"tang", "Turkish Angora"},
	{"tvan", "Turkish Van"},
	{"ycho", "York Chocolate"},
}

// LookupBreed finds a breed by id or name, ignoring case. An empty string
// or "all" yields the zero Breed, meaning no filter.
func LookupBreed(s string) (Breed, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return Breed{}, true
	}
	for _, b := range Breeds {
		if strings.EqualFold(b.ID, s) || strings.EqualFold(b.Name, s) {
			return b, true
		}
	}
	return Breed{}, false
}

// BreedName returns the display name for a breed id, or the id itself.
func BreedName(id string) string {
	if id == "" {
		return "All"
	}
	for _, b := range Breeds {
		if b.ID == id {
			return b.Name
		}
	}
	return id
}
