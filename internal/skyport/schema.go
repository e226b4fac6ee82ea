package skyport

import "minepanel/internal/models"

// Upstream payloads. Every field is a pointer so absent values can be told
// apart from zero and defaulted explicitly.

type nodeList struct {
	Data *[]struct {
		Attributes nodeAttributes `json:"attributes"`
	} `json:"data"`
}

type nodeAttributes struct {
	ID              *int    `json:"id"`
	Name            *string `json:"name"`
	Location        *string `json:"location"`
	FQDN            *string `json:"fqdn"`
	Memory          *int64  `json:"memory"`
	MemoryAllocated *int64  `json:"memory_allocated"`
	Disk            *int64  `json:"disk"`
	DiskAllocated   *int64  `json:"disk_allocated"`
	ServerCount     *int    `json:"server_count"`
	Status          *string `json:"status"`
}

type nestList struct {
	Data *[]struct {
		Attributes nestAttributes `json:"attributes"`
	} `json:"data"`
}

type nestAttributes struct {
	Name          *string          `json:"name"`
	Eggs          *[]eggAttributes `json:"eggs"`
	Relationships struct {
		Eggs struct {
			Data []struct {
				Attributes eggAttributes `json:"attributes"`
			} `json:"data"`
		} `json:"eggs"`
	} `json:"relationships"`
}

type eggAttributes struct {
	ID          *int    `json:"id"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	DockerImage *string `json:"docker_image"`
	Startup     *string `json:"startup"`
}

func str(p *string, def string) string {
	if p == nil || *p == "" {
		return def
	}
	return *p
}

func num[T int | int64](p *T) T {
	if p == nil {
		return 0
	}
	return *p
}

func (a nodeAttributes) node() models.Node {
	return models.Node{
		ID:         num(a.ID),
		Name:       str(a.Name, ""),
		Location:   str(a.Location, "Unknown"),
		FQDN:       str(a.FQDN, ""),
		Memory:     num(a.Memory),
		MemoryUsed: num(a.MemoryAllocated),
		Disk:       num(a.Disk),
		DiskUsed:   num(a.DiskAllocated),
		Servers:    num(a.ServerCount),
		Status:     str(a.Status, "unknown"),
	}
}

func (a eggAttributes) egg(nest string) models.Egg {
	return models.Egg{
		ID:          num(a.ID),
		Name:        str(a.Name, ""),
		Description: str(a.Description, ""),
		Nest:        nest,
		DockerImage: str(a.DockerImage, ""),
		Startup:     str(a.Startup, ""),
	}
}

func (l nodeList) nodes() []models.Node {
	nodes := make([]models.Node, 0, len(*l.Data))
	for _, item := range *l.Data {
		nodes = append(nodes, item.Attributes.node())
	}
	return nodes
}

// eggs flattens every nest into one list. Eggs embedded directly in the nest
// win over the relationships block.
func (l nestList) eggs() []models.Egg {
	eggs := []models.Egg{}
	for _, item := range *l.Data {
		nest := str(item.Attributes.Name, "")
		if item.Attributes.Eggs != nil {
			for _, e := range *item.Attributes.Eggs {
				eggs = append(eggs, e.egg(nest))
			}
			continue
		}
		for _, rel := range item.Attributes.Relationships.Eggs.Data {
			eggs = append(eggs, rel.Attributes.egg(nest))
		}
	}
	return eggs
}
