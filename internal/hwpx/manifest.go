package hwpx

import (
	"fmt"

	"github.com/beevik/etree"
)

// BinaryAsset is one embedded image binary pending registration in the
// container: its manifest item id, file extension and encoded bytes.
type BinaryAsset struct {
	ID   string
	Ext  string
	Data []byte
}

// Name returns the asset's archive entry name under the reserved
// binary-data namespace.
func (a BinaryAsset) Name() string {
	return "BinData/" + a.ID + "." + a.Ext
}

var mediaTypes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"bmp":  "image/bmp",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// MediaType maps a file extension to the manifest media type,
// defaulting to application/octet-stream.
func MediaType(ext string) string {
	if mt, ok := mediaTypes[ext]; ok {
		return mt
	}
	return "application/octet-stream"
}

// updateManifest registers new binary assets in the OPF package
// manifest and returns the re-serialized document. The manifest element
// is located by local name so the template's own namespace prefix keeps
// working whatever it is.
func updateManifest(hpf []byte, assets []BinaryAsset) ([]byte, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(hpf); err != nil {
		return nil, fmt.Errorf("parse package manifest: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("package manifest has no root element")
	}

	var manifest *etree.Element
	for _, child := range root.ChildElements() {
		if child.Tag == "manifest" {
			manifest = child
			break
		}
	}
	if manifest == nil {
		return nil, fmt.Errorf("no manifest element in package file; check the template's OPF structure")
	}

	itemTag := "item"
	if manifest.Space != "" {
		itemTag = manifest.Space + ":item"
	}
	for _, asset := range assets {
		item := manifest.CreateElement(itemTag)
		item.CreateAttr("id", asset.ID)
		item.CreateAttr("href", asset.Name())
		item.CreateAttr("media-type", MediaType(asset.Ext))
		item.CreateAttr("isEmbeded", "1")
	}

	return doc.WriteToBytes()
}
