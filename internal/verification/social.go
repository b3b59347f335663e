package verification

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"reflect"
)

// Main socials have a dedicated input on the contacts step.
const (
	SocialTwitter   = "twitter"
	SocialFacebook  = "facebook"
	SocialLinkedIn  = "linkedin"
	SocialInstagram = "instagram"
	SocialYouTube   = "youtube"
	SocialWebsite   = "website"
)

// MainSocials is the payload order of the main contacts.
var MainSocials = []string{
	SocialTwitter,
	SocialFacebook,
	SocialLinkedIn,
	SocialInstagram,
	SocialYouTube,
	SocialWebsite,
}

// linkablePlatforms are linked through an authorization redirect.
var linkablePlatforms = map[string]bool{
	PlatformDiscord:  true,
	PlatformLinkedIn: true,
}

// IsMainSocial reports whether name has a dedicated contacts input.
func IsMainSocial(name string) bool {
	n := normalizeName(name)
	for _, m := range MainSocials {
		if m == n {
			return true
		}
	}
	return false
}

// SplitContacts partitions contacts into main and other, keeping order.
func SplitContacts(contacts []ProjectContact) (main, other []ProjectContact) {
	for _, c := range contacts {
		if IsMainSocial(c.Name) {
			main = append(main, c)
		} else {
			other = append(other, c)
		}
	}
	return main, other
}

// SocialLinker links personal social profiles of the active session.
type SocialLinker struct {
	store *Store
}

// Link starts the authorization flow for platform unless a profile for it
// already exists, in which case it only tells the user. It returns the
// authorization url it opened, if any. The record is not updated; the new
// profile shows up on the next Load.
func (l *SocialLinker) Link(ctx context.Context, platform string) (string, error) {
	l.store.mustReady()
	platform = normalizeName(platform)
	if !linkablePlatforms[platform] {
		return "", &ValidationError{Fields: map[string]string{
			"platform": fmt.Sprintf("%q cannot be linked", platform),
		}}
	}

	gen, slug := l.store.generationOf()
	rec, err := l.store.current(gen)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return "", ErrNotLoaded
	}
	if _, ok := rec.Profile(platform); ok {
		l.store.opts.Notifier.Notify(fmt.Sprintf("You already connected a %s profile", platform), SeverityInfo)
		return "", nil
	}

	redirect, err := callWithTimeout(ctx, l.store.opts.CallTimeout, func(ctx context.Context) (string, error) {
		return l.store.opts.Remote.RequestSocialAuthorization(ctx, platform, rec.ID)
	})
	if err == nil {
		err = validateRedirect(redirect)
	}
	if l.store.isStale(gen) {
		return "", ErrStaleSession
	}
	if err != nil {
		rerr := &RemoteError{Op: "link " + platform, Err: err}
		l.store.fail(rerr, map[string]string{"section": "socialLink", "platform": platform, "slug": slug})
		return "", rerr
	}

	if err := l.store.opts.Opener.Open(redirect); err != nil {
		return "", fmt.Errorf("failed to open authorization url: %w", err)
	}
	return redirect, nil
}

func validateRedirect(raw string) error {
	if raw == "" {
		return errors.New("empty authorization url")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid authorization url: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("invalid authorization url scheme %q", u.Scheme)
	}
	return nil
}

// ContactsForm is the project contacts step: fixed main inputs plus a
// free-form list of other socials.
type ContactsForm struct {
	Twitter   string           `json:"twitter" validate:"omitempty,socialurl=twitter"`
	Facebook  string           `json:"facebook" validate:"omitempty,socialurl=facebook"`
	LinkedIn  string           `json:"linkedin" validate:"omitempty,socialurl=linkedin"`
	Instagram string           `json:"instagram" validate:"omitempty,socialurl=instagram"`
	YouTube   string           `json:"youtube" validate:"omitempty,socialurl=youtube"`
	Website   string           `json:"website" validate:"omitempty,http_url"`
	Others    []ProjectContact `json:"others"`

	dirty bool
}

// NewContactsForm fills a form from the record's contacts.
func NewContactsForm(rec *Record) *ContactsForm {
	f := &ContactsForm{}
	if rec == nil {
		return f
	}
	main, other := SplitContacts(rec.ProjectContacts)
	for _, c := range main {
		*f.mainField(c.Name) = c.URL
	}
	f.Others = append([]ProjectContact(nil), other...)
	return f
}

func (f *ContactsForm) mainField(name string) *string {
	switch normalizeName(name) {
	case SocialTwitter:
		return &f.Twitter
	case SocialFacebook:
		return &f.Facebook
	case SocialLinkedIn:
		return &f.LinkedIn
	case SocialInstagram:
		return &f.Instagram
	case SocialYouTube:
		return &f.YouTube
	case SocialWebsite:
		return &f.Website
	}
	return nil
}

// SetMain sets the url of a main social.
func (f *ContactsForm) SetMain(name, url string) error {
	p := f.mainField(name)
	if p == nil {
		return &ValidationError{Fields: map[string]string{"name": fmt.Sprintf("%q is not a main social", name)}}
	}
	if *p != url {
		*p = url
		f.dirty = true
	}
	return nil
}

// AddOther appends a free-form social.
func (f *ContactsForm) AddOther(c ProjectContact) error {
	verr := &ValidationError{}
	switch {
	case normalizeName(c.Name) == "":
		verr.add("name", "this field is required")
	case IsMainSocial(c.Name):
		verr.add("name", fmt.Sprintf("%q has its own input", c.Name))
	case f.hasOther(c.Name):
		verr.add("name", fmt.Sprintf("%q is already added", c.Name))
	}
	if !socialURLOK("", c.URL) {
		verr.add("url", "must be a valid link")
	}
	if err := verr.orNil(); err != nil {
		return err
	}
	f.Others = append(f.Others, c)
	f.dirty = true
	return nil
}

// Unlink removes an other social by name. The removal is local; it reaches
// the server with the next advance.
func (f *ContactsForm) Unlink(name string) bool {
	n := normalizeName(name)
	for i, c := range f.Others {
		if normalizeName(c.Name) == n {
			f.Others = append(f.Others[:i:i], f.Others[i+1:]...)
			f.dirty = true
			return true
		}
	}
	return false
}

func (f *ContactsForm) hasOther(name string) bool {
	n := normalizeName(name)
	for _, c := range f.Others {
		if normalizeName(c.Name) == n {
			return true
		}
	}
	return false
}

// Clone returns an independent copy of the form, edits included.
func (f *ContactsForm) Clone() *ContactsForm {
	cp := *f
	cp.Others = append([]ProjectContact(nil), f.Others...)
	return &cp
}

// Dirty reports whether the form was edited since it was built.
func (f *ContactsForm) Dirty() bool { return f.dirty }

// Contacts returns the non-empty main socials followed by the others.
func (f *ContactsForm) Contacts() []ProjectContact {
	out := []ProjectContact{}
	for _, name := range MainSocials {
		if v := *f.mainField(name); v != "" {
			out = append(out, ProjectContact{Name: name, URL: v})
		}
	}
	return append(out, f.Others...)
}

func (f *ContactsForm) Step() StepName { return StepProjectContacts }

func (f *ContactsForm) Validate(*Record) error {
	verr := validateStruct(f)
	for i, c := range f.Others {
		if normalizeName(c.Name) == "" {
			verr.add(fmt.Sprintf("others[%d].name", i), "this field is required")
		}
		if !socialURLOK("", c.URL) {
			verr.add(fmt.Sprintf("others[%d].url", i), "must be a valid link")
		}
	}
	return verr.orNil()
}

func (f *ContactsForm) Input() UpdateInput {
	return UpdateInput{ProjectContacts: f.Contacts()}
}

func (f *ContactsForm) Changed(rec *Record) bool {
	if f.dirty || rec == nil {
		return true
	}
	cur := rec.ProjectContacts
	if cur == nil {
		cur = []ProjectContact{}
	}
	return !reflect.DeepEqual(f.Contacts(), cur)
}
