package domain

// Category classifies an update file by the folder it lived under inside the
// uploaded zip. Index order matters: it is the order the publish job matches
// regexes against (highest index first) and the order resolver lookup tables
// are keyed by.
type Category int

const (
	CategoryGeneral Category = iota
	CategoryDesktop
	CategoryMobile
	CategoryWindows
	CategoryLinux
	CategoryMacOS
	CategoryAndroid
	CategoryIOS
	CategoryUncompressed
	CategoryBC3
	CategoryBC7
	CategoryETC2
	CategoryASTC
)

// categoryCount is one past the highest defined Category value.
const categoryCount = CategoryASTC + 1

var categoryNames = map[Category]string{
	CategoryGeneral:      "general",
	CategoryDesktop:      "desktop",
	CategoryMobile:       "mobile",
	CategoryWindows:      "windows",
	CategoryLinux:        "linux",
	CategoryMacOS:        "macos",
	CategoryAndroid:      "android",
	CategoryIOS:          "ios",
	CategoryUncompressed: "uncompressed",
	CategoryBC3:          "bc3",
	CategoryBC7:          "bc7",
	CategoryETC2:         "etc2",
	CategoryASTC:         "astc",
}

// String returns the lowercase folder-style name of the category.
func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "unknown"
}

// OS is the wire-level operating system enum, `os ∈ [0,5]` in the HTTP
// contract.
type OS int

const (
	OSWindows OS = iota
	OSLinux
	OSMacOS
	OSAndroid
	OSIOS
	// osReserved is the sixth index (5) reserved by the wire contract; it has
	// no platform/OS category mapping of its own.
	osReserved
)

// Texture is the wire-level texture-family enum, `texture ∈ [0,4]`.
type Texture int

const (
	TextureUncompressed Texture = iota
	TextureBC3
	TextureBC7
	TextureETC2
	TextureASTC
)

// ValidOS reports whether v is a wire-valid OS index.
func ValidOS(v int) bool { return v >= 0 && v <= 5 }

// ValidTexture reports whether v is a wire-valid texture index.
func ValidTexture(v int) bool { return v >= 0 && v <= 4 }

// PlatformLookup maps an OS to its coarse platform category.
var PlatformLookup = map[OS]Category{
	OSWindows: CategoryDesktop,
	OSLinux:   CategoryDesktop,
	OSMacOS:   CategoryDesktop,
	OSAndroid: CategoryMobile,
	OSIOS:     CategoryMobile,
}

// OperatingSystemLookup maps an OS to its exact OS category.
var OperatingSystemLookup = map[OS]Category{
	OSWindows: CategoryWindows,
	OSLinux:   CategoryLinux,
	OSMacOS:   CategoryMacOS,
	OSAndroid: CategoryAndroid,
	OSIOS:     CategoryIOS,
}

// TextureLookup maps a texture family to its category.
var TextureLookup = map[Texture]Category{
	TextureUncompressed: CategoryUncompressed,
	TextureBC3:          CategoryBC3,
	TextureBC7:          CategoryBC7,
	TextureETC2:         CategoryETC2,
	TextureASTC:         CategoryASTC,
}

// RelevantCategories returns the category set a client with the given os and
// texture is served: General always, plus the client's coarse platform,
// exact OS, and texture family.
func RelevantCategories(os OS, texture Texture) map[Category]bool {
	set := map[Category]bool{CategoryGeneral: true}
	if c, ok := PlatformLookup[os]; ok {
		set[c] = true
	}
	if c, ok := OperatingSystemLookup[os]; ok {
		set[c] = true
	}
	if c, ok := TextureLookup[texture]; ok {
		set[c] = true
	}
	return set
}
