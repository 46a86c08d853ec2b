package resource

import (
	"os"
	"path/filepath"

	"github.com/nwncomm/nwnc/internal/erf"
	"github.com/nwncomm/nwnc/internal/gff"
	"golang.org/x/xerrors"
)

// ModuleParams is spec §4.4's load-module argument set, plus the
// resource-type/ERF-width knobs the original derives from global
// configuration rather than the call itself.
type ModuleParams struct {
	// ModuleName is the module's bare resource name (no extension).
	ModuleName string
	// AltTalkPrefix, if non-empty, is loaded as a second talk-string
	// table namespace (spec §4.4 step 9's "alternate one"); parsing the
	// on-disk talk-table format is out of scope, so this only reserves
	// the TalkTable namespace for the caller to populate.
	AltTalkPrefix string

	HomeDir    string
	InstallDir string

	// ExplicitPath overrides the home/install search entirely (spec's
	// `-r PATH` CLI flag): a directory is loaded as a directory-tier
	// provider, anything else is tried as an ERF of ResRefWidth.
	ExplicitPath string

	// HakList names each HAK archive to register, home before install,
	// in the order given (later entries shadow earlier ones per spec §5
	// ordering guarantee (a)).
	HakList []string

	// CampaignGUID, if non-nil, is matched against each campaign.cam's
	// "GUID" Void field under the campaigns directory (spec §4.4 step 3).
	CampaignGUID []byte

	// SuppressBase skips step 3 entirely (the "does not suppress base
	// resources" guard); set for a caller that only wants the HAK/custom
	// provider set.
	SuppressBase bool

	// CoreOnly performs only steps 1-3 (a "lite" load, spec §4.4), for a
	// caller that only needs to read the module's own dependency list
	// before committing to a full load.
	CoreOnly bool

	FirstChance []Provider
	LastChance  []Provider
	KeyFiles    []Provider

	// ResRefWidth selects the 16- or 32-byte ERF key-record layout (the
	// `-1` CLI flag); defaults to 32 when zero.
	ResRefWidth int

	// TypeOf resolves a lowercase filename extension to a Type, shared by
	// the directory and zip providers this load registers.
	TypeOf func(ext string) (Type, bool)
}

const (
	campaignGUIDField = "GUID"
	moduleIfoName     = "module"
)

// LoadModule implements spec §4.4's "Module load": tear down, register
// first-chance providers, locate and register the module (and its
// matching campaign directory and HAK list) unless suppressed, register
// the built-in pwc/override directories, enumerate Data zips, register
// key-file providers, register last-chance providers, and rebuild the
// index. A "lite" load (CoreOnly) stops after the module/campaign/HAK
// registration step, per spec's "sufficient for a caller to read the
// module's dependency list before a full load."
func (m *Manager) LoadModule(p ModuleParams) error {
	m.mu.Lock()
	for tier := Tier(0); tier < numTiers; tier++ {
		m.providers[tier] = nil
	}
	m.mu.Unlock()

	for _, fc := range p.FirstChance {
		m.RegisterProvider(fc)
	}

	if !p.SuppressBase {
		if err := m.loadModuleAndCampaign(p); err != nil {
			return err
		}
		for _, hak := range p.HakList {
			if err := m.loadHak(p, hak); err != nil {
				return err
			}
		}
	}

	if p.CoreOnly {
		m.RebuildIndex()
		return nil
	}

	for _, dir := range []string{p.HomeDir, p.InstallDir} {
		if dir == "" {
			continue
		}
		for _, sub := range []string{"pwc", "override"} {
			path := filepath.Join(dir, sub)
			if fi, err := os.Stat(path); err == nil && fi.IsDir() {
				dp, err := OpenDirectory(path, p.TypeOf)
				if err != nil {
					return err
				}
				m.RegisterProvider(dp)
			}
		}
	}

	for _, dir := range []string{p.HomeDir, p.InstallDir} {
		if dir == "" {
			continue
		}
		if err := m.registerDataZips(filepath.Join(dir, "Data"), p.TypeOf); err != nil {
			return err
		}
	}

	for _, kf := range p.KeyFiles {
		m.RegisterProvider(kf)
	}
	for _, lc := range p.LastChance {
		m.RegisterProvider(lc)
	}

	m.RebuildIndex()
	return nil
}

// loadModuleAndCampaign resolves spec §4.4 step 3's module search: an
// explicit path overrides the default search entirely; otherwise home is
// tried before install, and within each directory the order is archive
// (.mod), then "pwc" compressed form, then directory form; the legacy
// ".nwm" form is tried only once both directories have failed every
// other form, mirroring the source's ResourceManager::LoadModule
// fallback to ModSearch_Automatic's NWM probe.
func (m *Manager) loadModuleAndCampaign(p ModuleParams) error {
	var provider Provider
	var err error

	if p.ExplicitPath != "" {
		provider, err = m.openModuleSource(p.ExplicitPath, p)
		if err != nil {
			return xerrors.Errorf("resource: load explicit module path %s: %w", p.ExplicitPath, err)
		}
	} else {
		for _, dir := range []string{p.HomeDir, p.InstallDir} {
			if dir == "" {
				continue
			}
			if provider, err = m.tryModuleForm(dir, p); err != nil {
				return err
			}
			if provider != nil {
				break
			}
		}
		if provider == nil {
			for _, dir := range []string{p.HomeDir, p.InstallDir} {
				if dir == "" {
					continue
				}
				nwm := filepath.Join(dir, "nwm", p.ModuleName+".nwm")
				if _, statErr := os.Stat(nwm); statErr == nil {
					provider, err = erf.Open(nwm, resRefWidthOrDefault(p.ResRefWidth))
					if err != nil {
						return xerrors.Errorf("resource: load legacy nwm %s: %w", nwm, err)
					}
					break
				}
			}
		}
	}

	if provider == nil {
		return xerrors.Errorf("%w: couldn't locate module %q", ErrNotFound, p.ModuleName)
	}
	m.RegisterProvider(provider)

	if len(p.CampaignGUID) == 16 {
		if cp, err := m.findCampaign(p); err == nil && cp != nil {
			m.RegisterProvider(cp)
		}
	}
	return nil
}

// tryModuleForm tries, in order within dir: ".mod" ERF, "pwc/<name>.pwc"
// (gzip-wrapped ERF), then the unpacked "modules/<name>/" directory form.
// It returns a nil provider (not an error) when none of the three forms
// exist in dir, so the caller can move on to the other search directory.
func (m *Manager) tryModuleForm(dir string, p ModuleParams) (Provider, error) {
	modPath := filepath.Join(dir, "modules", p.ModuleName+".mod")
	if _, err := os.Stat(modPath); err == nil {
		pr, err := erf.Open(modPath, resRefWidthOrDefault(p.ResRefWidth))
		if err != nil {
			return nil, xerrors.Errorf("resource: load module erf %s: %w", modPath, err)
		}
		return pr, nil
	}

	pwcPath := filepath.Join(dir, "pwc", p.ModuleName+".pwc")
	if isPWC, _ := IsPWC(pwcPath); isPWC {
		decompressed, err := DecompressPWC(pwcPath, m.dir.path)
		if err != nil {
			return nil, xerrors.Errorf("resource: decompress pwc module %s: %w", pwcPath, err)
		}
		pr, err := erf.Open(decompressed, resRefWidthOrDefault(p.ResRefWidth))
		if err != nil {
			return nil, xerrors.Errorf("resource: load pwc module %s: %w", pwcPath, err)
		}
		return pr, nil
	}

	dirPath := filepath.Join(dir, "modules", p.ModuleName)
	if fi, err := os.Stat(dirPath); err == nil && fi.IsDir() {
		if _, err := os.Stat(filepath.Join(dirPath, moduleIfoName+".ifo")); err != nil {
			return nil, nil
		}
		dp, err := OpenDirectory(dirPath, p.TypeOf)
		if err != nil {
			return nil, xerrors.Errorf("resource: load module directory %s: %w", dirPath, err)
		}
		return dp, nil
	}

	return nil, nil
}

// openModuleSource loads an explicit `-r PATH` override: a directory
// loads as a directory-tier provider, anything else is tried as an ERF
// of p.ResRefWidth (32 when zero), matching CustomModuleSourcePath's two branches.
func (m *Manager) openModuleSource(path string, p ModuleParams) (Provider, error) {
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		return OpenDirectory(path, p.TypeOf)
	}
	return erf.Open(path, resRefWidthOrDefault(p.ResRefWidth))
}

// loadHak registers one HAK archive, home directory first.
func (m *Manager) loadHak(p ModuleParams, hak string) error {
	for _, dir := range []string{p.HomeDir, p.InstallDir} {
		if dir == "" {
			continue
		}
		path := filepath.Join(dir, "hak", hak+".hak")
		if _, err := os.Stat(path); err != nil {
			continue
		}
		pr, err := erf.Open(path, resRefWidthOrDefault(p.ResRefWidth))
		if err != nil {
			return xerrors.Errorf("resource: load hak %s: %w", path, err)
		}
		m.RegisterProvider(pr)
		return nil
	}
	return xerrors.Errorf("%w: hak %q not found", ErrNotFound, hak)
}

// registerDataZips enumerates dir in native filesystem order and
// registers every ".zip" member, per spec §4.4 step 5 / ordering
// guarantee (b).
func (m *Manager) registerDataZips(dir string, typeOf func(ext string) (Type, bool)) error {
	d, err := os.Open(dir)
	if err != nil {
		return nil // the Data directory is optional
	}
	ents, err := d.ReadDir(-1) // unsorted, unlike os.ReadDir
	d.Close()
	if err != nil {
		return nil
	}
	for _, e := range ents {
		if e.IsDir() || filepath.Ext(e.Name()) != ".zip" {
			continue
		}
		zp, err := OpenZip(filepath.Join(dir, e.Name()), typeOf)
		if err != nil {
			return xerrors.Errorf("resource: load data zip %s: %w", e.Name(), err)
		}
		m.RegisterProvider(zp)
	}
	return nil
}

// findCampaign implements spec §4.4 step 3's campaign match: sweep the
// "campaigns" directory (home, then install) for a subdirectory whose
// campaign.cam root struct's "GUID" Void field equals p.CampaignGUID.
func (m *Manager) findCampaign(p ModuleParams) (Provider, error) {
	for _, dir := range []string{p.HomeDir, p.InstallDir} {
		if dir == "" {
			continue
		}
		base := filepath.Join(dir, "campaigns")
		ents, err := os.ReadDir(base)
		if err != nil {
			continue
		}
		for _, e := range ents {
			if !e.IsDir() {
				continue
			}
			camPath := filepath.Join(base, e.Name(), "campaign.cam")
			guid, err := readCampaignGUID(camPath)
			if err != nil {
				continue
			}
			if string(guid) != string(p.CampaignGUID) {
				continue
			}
			return OpenDirectory(filepath.Join(base, e.Name()), p.TypeOf)
		}
	}
	return nil, nil
}

func readCampaignGUID(path string) ([]byte, error) {
	r, err := gff.Open(path)
	if err != nil {
		return nil, err
	}
	guid, ok := r.RootStruct().GetVoid(campaignGUIDField)
	if !ok || len(guid) != 16 {
		return nil, xerrors.Errorf("resource: %s: missing or malformed %s field", path, campaignGUIDField)
	}
	return guid, nil
}

func resRefWidthOrDefault(w int) int {
	if w == 0 {
		return 32
	}
	return w
}
