package pkgfile

import (
	"fmt"
	"time"

	"datapack/pkg/domain"
)

// Wire timestamp layout; the secondary layout covers documents written by
// older tooling that omitted the zone suffix.
const (
	timeLayout       = time.RFC3339Nano
	legacyTimeLayout = "2006-01-02T15:04:05.999999"
)

// reservedMetadataKeys are the known fields of the package metadata block;
// any other key mapping to a document is treated as a domain profile block.
var reservedMetadataKeys = map[string]bool{
	"data": true, "rows": true, "columns": true, "provenance": true, "profile": true,
}

func decodeDocument(top map[string]any) (*domain.DataPackageDocument, error) {
	var dag map[string]any
	if m, ok := top[Namespace].(map[string]any); ok {
		dag = m
	} else {
		for _, ns := range legacyNamespaces {
			if m, ok := top[ns].(map[string]any); ok {
				dag = m
				break
			}
		}
	}
	if dag == nil {
		return nil, fmt.Errorf("%w: missing %q section", ErrMalformedPackage, Namespace)
	}

	current, _ := dag["uuid"].(string)
	rawNodes, ok := dag["nodes"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: missing node map", ErrMalformedPackage)
	}
	nodes := make(map[string]domain.StageNode, len(rawNodes))
	for id, v := range rawNodes {
		nm, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: node %s is not a document", ErrMalformedPackage, id)
		}
		node, err := decodeNode(id, nm)
		if err != nil {
			return nil, err
		}
		nodes[id] = node
	}

	var edges []domain.Edge
	if rawEdges, ok := dag["edges"].([]any); ok {
		for _, v := range rawEdges {
			em, ok := v.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: edge is not a document", ErrMalformedPackage)
			}
			src, _ := em["source"].(string)
			dst, _ := em["target"].(string)
			edges = append(edges, domain.Edge{Source: src, Target: dst})
		}
	}

	graph, err := domain.GraphFromParts(nodes, edges, current)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPackage, err)
	}

	info := domain.PackageInfo{}
	if md, ok := dag["metadata"].(map[string]any); ok {
		info = domain.InfoFromMetadata(md, detectProfile(md))
	}

	var resources []domain.ResourceDescriptor
	if rawRes, ok := top["resources"].([]any); ok {
		for _, v := range rawRes {
			rm, ok := v.(map[string]any)
			if !ok {
				continue
			}
			resources = append(resources, decodeResource(rm))
		}
	}

	return &domain.DataPackageDocument{Info: info, Resources: resources, Provenance: graph}, nil
}

func decodeNode(id string, m map[string]any) (domain.StageNode, error) {
	node := domain.StageNode{ID: id}
	node.Producer, _ = m["name"].(string)
	node.Version, _ = m["version"].(string)
	if action, ok := m["action"].(string); ok {
		node.Action = domain.Action(action)
	}
	if raw, ok := m["time"].(string); ok {
		t, err := time.Parse(timeLayout, raw)
		if err != nil {
			t, err = time.Parse(legacyTimeLayout, raw)
		}
		if err != nil {
			return domain.StageNode{}, fmt.Errorf("%w: node %s time %q", ErrMalformedPackage, id, raw)
		}
		node.Time = t.UTC()
	}
	if annots, ok := m["annot"].([]any); ok {
		node.Annotations = make([]string, 0, len(annots))
		for _, a := range annots {
			s, _ := a.(string)
			node.Annotations = append(node.Annotations, s)
		}
	}
	if views, ok := m["views"].([]any); ok {
		node.Views = make([]map[string]any, 0, len(views))
		for _, v := range views {
			vm, _ := v.(map[string]any)
			node.Views = append(node.Views, vm)
		}
	}
	if md, ok := m["metadata"].(map[string]any); ok {
		node.Metadata = md
	}
	return node, nil
}

func decodeResource(m map[string]any) domain.ResourceDescriptor {
	desc := domain.ResourceDescriptor{}
	desc.Name, _ = m["name"].(string)
	desc.Path, _ = m["path"].(string)
	desc.Format, _ = m["format"].(string)
	desc.Rows = toInt(m["rows"])
	desc.Columns = toInt(m["columns"])
	desc.Digest, _ = m["digest"].(string)
	if schema, ok := m["schema"].(map[string]any); ok {
		if fields, ok := schema["fields"].([]any); ok {
			for _, f := range fields {
				fm, ok := f.(map[string]any)
				if !ok {
					continue
				}
				name, _ := fm["name"].(string)
				typ, _ := fm["type"].(string)
				desc.Fields = append(desc.Fields, domain.SchemaField{Name: name, Type: typ})
			}
		}
	}
	return desc
}

// detectProfile finds the domain profile key in a metadata block: any
// non-reserved key holding a document.
func detectProfile(md map[string]any) string {
	if name, ok := md["profile"].(string); ok && name != "" {
		return name
	}
	for k, v := range md {
		if reservedMetadataKeys[k] {
			continue
		}
		if _, ok := v.(map[string]any); ok {
			return k
		}
	}
	return ""
}

func encodeDocument(doc *domain.DataPackageDocument) (map[string]any, error) {
	if doc.Provenance == nil {
		return nil, fmt.Errorf("document has no provenance graph")
	}
	nodes := make(map[string]any)
	for id, n := range doc.Provenance.Nodes() {
		nodes[id] = encodeNode(n)
	}
	edges := make([]any, 0, doc.Provenance.EdgeCount())
	for _, e := range doc.Provenance.Edges() {
		edges = append(edges, map[string]any{"source": e.Source, "target": e.Target})
	}
	dag := map[string]any{
		"uuid":     doc.Provenance.CurrentID(),
		"nodes":    nodes,
		"edges":    edges,
		"metadata": encodeInfo(doc.Info),
	}
	resources := make([]any, 0, len(doc.Resources))
	for _, r := range doc.Resources {
		resources = append(resources, encodeResource(r))
	}
	return map[string]any{Namespace: dag, "resources": resources}, nil
}

func encodeNode(n domain.StageNode) map[string]any {
	annots := make([]any, 0, len(n.Annotations))
	for _, a := range n.Annotations {
		annots = append(annots, a)
	}
	views := make([]any, 0, len(n.Views))
	for _, v := range n.Views {
		views = append(views, v)
	}
	metadata := n.Metadata
	if metadata == nil {
		metadata = map[string]any{}
	}
	return map[string]any{
		"name":     n.Producer,
		"action":   string(n.Action),
		"time":     n.Time.UTC().Format(timeLayout),
		"version":  n.Version,
		"annot":    annots,
		"views":    views,
		"metadata": metadata,
	}
}

func encodeInfo(info domain.PackageInfo) map[string]any {
	md := map[string]any{
		"data": map[string]any{
			"dataset": map[string]any{
				"id":    info.Dataset.ID,
				"title": info.Dataset.Title,
			},
			"source": map[string]any{
				"title": info.Source.Title,
			},
			"version": info.Version,
		},
	}
	if info.Rows != "" {
		md["rows"] = info.Rows
	}
	if info.Columns != "" {
		md["columns"] = info.Columns
	}
	if info.Provenance != nil {
		md["provenance"] = info.Provenance
	}
	if info.ProfileName != "" {
		// explicit key so readers never have to infer the profile block
		md["profile"] = info.ProfileName
		if info.ProfileData != nil {
			md[info.ProfileName] = info.ProfileData
		}
	}
	return md
}

func encodeResource(r domain.ResourceDescriptor) map[string]any {
	fields := make([]any, 0, len(r.Fields))
	for _, f := range r.Fields {
		fields = append(fields, map[string]any{"name": f.Name, "type": f.Type})
	}
	return map[string]any{
		"name":    r.Name,
		"path":    r.Path,
		"format":  r.Format,
		"rows":    r.Rows,
		"columns": r.Columns,
		"digest":  r.Digest,
		"schema":  map[string]any{"fields": fields},
	}
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case uint64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}
