package models

type ContentType string

const (
	BlogPost           ContentType = "blog-post"
	ProductDescription ContentType = "product-description"
	AdCopy             ContentType = "ad-copy"
	SocialMedia        ContentType = "social-media"
)

// DefaultInstruction is used for any content type outside the catalogue.
const DefaultInstruction = "You are a helpful AI assistant."

var systemInstructions = map[ContentType]string{
	BlogPost:           "You are an expert blog writer. Create engaging, SEO-optimized blog content that is informative and well-structured.",
	ProductDescription: "You are an expert e-commerce copywriter. Create compelling product descriptions that highlight benefits and drive conversions.",
	AdCopy:             "You are an expert advertising copywriter. Create persuasive, attention-grabbing ad copy that drives action.",
	SocialMedia:        "You are a social media expert. Create engaging, viral-worthy social media posts that encourage interaction.",
}

// ContentTypes lists the catalogue in display order.
func ContentTypes() []ContentType {
	return []ContentType{AdCopy, BlogPost, ProductDescription, SocialMedia}
}

func (c ContentType) Valid() bool {
	_, ok := systemInstructions[c]
	return ok
}

// SystemInstruction returns the fixed instruction for c, or DefaultInstruction.
func (c ContentType) SystemInstruction() string {
	if s, ok := systemInstructions[c]; ok {
		return s
	}
	return DefaultInstruction
}
