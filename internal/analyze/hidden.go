package analyze

import (
	"context"
	"log/slog"
	"os"
	"sort"

	"github.com/shirou/gopsutil/v4/disk"

	"github.com/Aman-CERP/catalog/internal/scanner"
)

// hiddenGuidance is shown with a non-zero estimate.
const hiddenGuidance = "space used on the device but not attributed to any indexed entry; " +
	"permission-denied directories, excluded paths and other users' files are the usual cause"

// Usage is what the OS reports for the filesystem holding a path.
type Usage struct {
	Device     uint64
	Mountpoint string
	Total      uint64
	Used       uint64
}

// UsageProbe reports filesystem usage for a path.
type UsageProbe interface {
	Usage(ctx context.Context, path string) (Usage, error)
}

// DiskProbe is the UsageProbe backed by gopsutil.
type DiskProbe struct{}

// Usage implements UsageProbe.
func (DiskProbe) Usage(ctx context.Context, path string) (Usage, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Usage{}, err
	}
	dev, _ := scanner.DeviceID(info)

	u, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return Usage{}, err
	}
	return Usage{Device: dev, Mountpoint: u.Path, Total: u.Total, Used: u.Used}, nil
}

// DeviceUsage compares scanned and OS-reported usage for one device.
type DeviceUsage struct {
	Mountpoint string `json:"mountpoint"`
	Used       uint64 `json:"used"`
	Scanned    uint64 `json:"scanned"`
	Hidden     uint64 `json:"hidden"`
}

// HiddenSpaceEstimate is a best-effort figure; it is omitted when usage
// cannot be read.
type HiddenSpaceEstimate struct {
	Hidden   uint64        `json:"hidden"`
	Devices  []DeviceUsage `json:"devices"`
	Guidance string        `json:"guidance,omitempty"`
}

// scannedPath is a path and the bytes the catalog attributes to it.
type scannedPath struct {
	path    string
	scanned uint64
}

// estimateHidden groups paths by device and subtracts scanned bytes from
// used bytes. Paths whose usage cannot be read are skipped; nil means no
// device could be read.
func estimateHidden(ctx context.Context, probe UsageProbe, paths []scannedPath) *HiddenSpaceEstimate {
	byDevice := make(map[uint64]*DeviceUsage)
	var order []uint64
	for _, p := range paths {
		u, err := probe.Usage(ctx, p.path)
		if err != nil {
			slog.Debug("usage_unavailable", slog.String("path", p.path), slog.String("error", err.Error()))
			continue
		}
		d, ok := byDevice[u.Device]
		if !ok {
			d = &DeviceUsage{Mountpoint: u.Mountpoint, Used: u.Used}
			byDevice[u.Device] = d
			order = append(order, u.Device)
		}
		d.Scanned += p.scanned
	}
	if len(order) == 0 {
		return nil
	}

	est := &HiddenSpaceEstimate{Devices: make([]DeviceUsage, 0, len(order))}
	for _, dev := range order {
		d := byDevice[dev]
		if d.Used > d.Scanned {
			d.Hidden = d.Used - d.Scanned
		}
		est.Hidden += d.Hidden
		est.Devices = append(est.Devices, *d)
	}
	sort.Slice(est.Devices, func(i, j int) bool { return est.Devices[i].Mountpoint < est.Devices[j].Mountpoint })
	if est.Hidden > 0 {
		est.Guidance = hiddenGuidance
	}
	return est
}
