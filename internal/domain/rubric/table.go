package rubric

// featureTable is the complete built-in rubric.  Criteria strings are sent
// verbatim to the content-understanding service as evaluation context, so
// wording changes alter verdicts; treat edits as model-facing prompt changes.
var featureTable = []Feature{
	// ── Long-form ABCD ───────────────────────────────────────────────────────
	{
		ID: "a_quick_pacing", Name: "Quick Pacing",
		CheckSet: CheckSetLongFormABCD, SubCategory: SubAttract, Segment: SegmentFullVideo,
		Criteria: "Five or more distinct shots occur within any 5-second window of the video.",
		Method:   MethodHybrid,
	},
	{
		ID: "a_quick_pacing_1st_5", Name: "Quick Pacing (First 5 seconds)",
		CheckSet: CheckSetLongFormABCD, SubCategory: SubAttract, Segment: SegmentFirst5Secs,
		Criteria: "Five or more distinct shots occur within the first 5 seconds of the video.",
		Method:   MethodHybrid,
	},
	{
		ID: "a_dynamic_start", Name: "Dynamic Start",
		CheckSet: CheckSetLongFormABCD, SubCategory: SubAttract, Segment: SegmentFirst5Secs,
		Criteria: "The video opens with motion, a scene change, or other visually dynamic content within the first 3 seconds rather than a static frame.",
		Method:   MethodHybrid,
	},
	{
		ID: "a_supers", Name: "Supers",
		CheckSet: CheckSetLongFormABCD, SubCategory: SubAttract, Segment: SegmentFullVideo,
		Criteria: "Text overlays (supers) reinforcing the message appear on screen at any point.",
		Method:   MethodHybrid,
	},
	{
		ID: "a_supers_with_audio", Name: "Supers with Audio",
		CheckSet: CheckSetLongFormABCD, SubCategory: SubAttract, Segment: SegmentFullVideo,
		Criteria: "On-screen text is reinforced by matching spoken audio at the same moment.",
		Method:   MethodHybrid,
	},
	{
		ID: "b_brand_visuals", Name: "Brand Visuals",
		CheckSet: CheckSetLongFormABCD, SubCategory: SubBrand, Segment: SegmentFullVideo,
		Criteria: "The brand name or logo is visible at any point in the video.",
		Method:   MethodHybrid,
	},
	{
		ID: "b_brand_visuals_1st_5", Name: "Brand Visuals (First 5 seconds)",
		CheckSet: CheckSetLongFormABCD, SubCategory: SubBrand, Segment: SegmentFirst5Secs,
		Criteria: "The brand name or logo is visible within the first 5 seconds.",
		Method:   MethodHybrid,
	},
	{
		ID: "b_brand_mention_speech", Name: "Brand Mention (Speech)",
		CheckSet: CheckSetLongFormABCD, SubCategory: SubBrand, Segment: SegmentFullVideo,
		Criteria: "The brand name or a known variation is spoken aloud at any point.",
		Method:   MethodHybrid,
	},
	{
		ID: "b_brand_mention_speech_1st_5", Name: "Brand Mention (Speech) (First 5 seconds)",
		CheckSet: CheckSetLongFormABCD, SubCategory: SubBrand, Segment: SegmentFirst5Secs,
		Criteria: "The brand name or a known variation is spoken within the first 5 seconds.",
		Method:   MethodHybrid,
	},
	{
		ID: "c_product_visuals", Name: "Product Visuals",
		CheckSet: CheckSetLongFormABCD, SubCategory: SubConnect, Segment: SegmentFullVideo,
		Criteria: "A branded product or product category is shown on screen.",
		Method:   MethodHybrid,
	},
	{
		ID: "c_product_visuals_1st_5", Name: "Product Visuals (First 5 seconds)",
		CheckSet: CheckSetLongFormABCD, SubCategory: SubConnect, Segment: SegmentFirst5Secs,
		Criteria: "A branded product or product category is shown within the first 5 seconds.",
		Method:   MethodHybrid,
	},
	{
		ID: "c_product_mention_text", Name: "Product Mention (Text)",
		CheckSet: CheckSetLongFormABCD, SubCategory: SubConnect, Segment: SegmentFullVideo,
		Criteria: "A branded product or product category is named in on-screen text.",
		Method:   MethodHybrid,
	},
	{
		ID: "c_product_mention_speech", Name: "Product Mention (Speech)",
		CheckSet: CheckSetLongFormABCD, SubCategory: SubConnect, Segment: SegmentFullVideo,
		Criteria: "A branded product or product category is named in spoken audio.",
		Method:   MethodHybrid,
	},
	{
		ID: "c_visible_face_1st_5", Name: "Visible Face (First 5 seconds)",
		CheckSet: CheckSetLongFormABCD, SubCategory: SubConnect, Segment: SegmentFirst5Secs,
		Criteria: "A human face is clearly visible within the first 5 seconds.",
		Method:   MethodAnnotations,
	},
	{
		ID: "c_visible_face_close_up", Name: "Visible Face (Close Up)",
		CheckSet: CheckSetLongFormABCD, SubCategory: SubConnect, Segment: SegmentFullVideo,
		Criteria: "A close-up of a human face appears at any point in the video.",
		Method:   MethodAnnotations,
	},
	{
		ID: "c_presence_of_people", Name: "Presence of People",
		CheckSet: CheckSetLongFormABCD, SubCategory: SubConnect, Segment: SegmentFullVideo,
		Criteria: "One or more people appear at any point in the video.",
		Method:   MethodAnnotations,
	},
	{
		ID: "c_overall_pacing", Name: "Overall Pacing",
		CheckSet: CheckSetLongFormABCD, SubCategory: SubConnect, Segment: SegmentFullVideo,
		Criteria: "The average shot length across the whole video is under 2 seconds.",
		Method:   MethodAnnotations,
	},
	{
		ID: "d_audio_speech_early", Name: "Audio Speech Early",
		CheckSet: CheckSetLongFormABCD, SubCategory: SubDirect, Segment: SegmentFirst5Secs,
		Criteria: "Spoken audio begins within the first 5 seconds of the video.",
		Method:   MethodAnnotations,
	},
	{
		ID: "d_call_to_action_text", Name: "Call To Action (Text)",
		CheckSet: CheckSetLongFormABCD, SubCategory: SubDirect, Segment: SegmentFullVideo,
		Criteria: "An explicit call to action (e.g. buy now, sign up, visit, shop, learn more) appears in on-screen text.",
		Method:   MethodHybrid,
	},
	{
		ID: "d_call_to_action_speech", Name: "Call To Action (Speech)",
		CheckSet: CheckSetLongFormABCD, SubCategory: SubDirect, Segment: SegmentFullVideo,
		Criteria: "An explicit call to action is spoken aloud at any point.",
		Method:   MethodHybrid,
	},

	// ── Shorts ───────────────────────────────────────────────────────────────
	{
		ID: "s_hook_first_3s", Name: "Hook In First 3 Seconds",
		CheckSet: CheckSetShorts, SubCategory: SubAttract, Segment: SegmentFirst5Secs,
		Criteria: "A question, surprising visual, bold claim, or pattern interrupt occurs within the first 3 seconds.",
		Method:   MethodLLM,
	},
	{
		ID: "s_vertical_framing", Name: "Vertical-Safe Framing",
		CheckSet: CheckSetShorts, SubCategory: SubAttract, Segment: SegmentFullVideo,
		Criteria: "Key subjects and text remain inside the vertical 9:16 safe area for the whole video.",
		Method:   MethodLLM,
	},
	{
		ID: "s_sound_on_design", Name: "Sound-On Design",
		CheckSet: CheckSetShorts, SubCategory: SubConnect, Segment: SegmentFullVideo,
		Criteria: "The creative relies on audio (voiceover, music, sound effects) as an integral part of the message rather than being silent-safe only.",
		Method:   MethodLLM,
	},
	{
		ID: "s_loopable_ending", Name: "Loopable Ending",
		CheckSet: CheckSetShorts, SubCategory: SubStructure, Segment: SegmentFullVideo,
		Criteria: "The final frame transitions naturally back into the opening frame, rewarding replays.",
		Method:   MethodLLM,
	},
	{
		ID: "s_native_feel", Name: "Native Creator Feel",
		CheckSet: CheckSetShorts, SubCategory: SubPersuasion, Segment: SegmentFullVideo,
		Criteria: "The video resembles organic creator content (handheld camera, direct address, casual tone) rather than a polished studio advert.",
		Method:   MethodLLM,
	},
	{
		ID: "s_early_branding", Name: "Early Branding",
		CheckSet: CheckSetShorts, SubCategory: SubBrand, Segment: SegmentFirst5Secs,
		Criteria: "The brand is identifiable (logo, product, or spoken name) within the first 5 seconds.",
		Method:   MethodLLM,
	},
	{
		ID: "s_cta_end_card", Name: "End-Card Call To Action",
		CheckSet: CheckSetShorts, SubCategory: SubDirect, Segment: SegmentFullVideo,
		Criteria: "The video closes with a dedicated end card or overlay carrying an explicit call to action.",
		Method:   MethodLLM,
	},

	// ── Creative intelligence: persuasion ────────────────────────────────────
	{
		ID: "p_scarcity", Name: "Scarcity",
		CheckSet: CheckSetCreativeIntelligence, SubCategory: SubPersuasion, Segment: SegmentFullVideo,
		Criteria: "A scarcity tactic is used: limited-time offers, limited stock messaging, exclusive access, countdown timers, or phrases implying restricted availability.",
		Method:   MethodLLM,
	},
	{
		ID: "p_social_proof", Name: "Social Proof",
		CheckSet: CheckSetCreativeIntelligence, SubCategory: SubPersuasion, Segment: SegmentFullVideo,
		Criteria: "Social proof is present: testimonials, reviews, ratings, user counts, endorsements, award badges, or other evidence that others have validated the product.",
		Method:   MethodLLM,
	},
	{
		ID: "p_authority", Name: "Authority",
		CheckSet: CheckSetCreativeIntelligence, SubCategory: SubPersuasion, Segment: SegmentFullVideo,
		Criteria: "An authority signal is present: expert endorsements, credentials, certifications, scientific claims, or appeals to authoritative knowledge.",
		Method:   MethodLLM,
	},
	{
		ID: "p_urgency", Name: "Urgency",
		CheckSet: CheckSetCreativeIntelligence, SubCategory: SubPersuasion, Segment: SegmentFullVideo,
		Criteria: "Time-based pressure is used: act now, today only, ends soon, countdowns, or deadline references. Urgency is time-based, distinct from quantity-based scarcity.",
		Method:   MethodLLM,
	},
	{
		ID: "p_reciprocity", Name: "Reciprocity",
		CheckSet: CheckSetCreativeIntelligence, SubCategory: SubPersuasion, Segment: SegmentFullVideo,
		Criteria: "Something of value is offered up front: free trials, free samples, discount codes, bonus gifts, or free educational content.",
		Method:   MethodLLM,
	},
	{
		ID: "p_ugc_testimonial", Name: "UGC / Testimonial Format",
		CheckSet: CheckSetCreativeIntelligence, SubCategory: SubPersuasion, Segment: SegmentFullVideo,
		Criteria: "The creative uses user-generated content or a testimonial format: a real customer or creator speaking about their own experience with the product.",
		Method:   MethodLLM,
	},

	// ── Creative intelligence: structure ─────────────────────────────────────
	{
		ID: "st_problem_solution", Name: "Problem → Solution Arc",
		CheckSet: CheckSetCreativeIntelligence, SubCategory: SubStructure, Segment: SegmentFullVideo,
		Criteria: "The narrative presents a relatable problem and positions the product as its solution.",
		Method:   MethodLLM,
	},
	{
		ID: "st_product_demo", Name: "Product Demonstration",
		CheckSet: CheckSetCreativeIntelligence, SubCategory: SubStructure, Segment: SegmentFullVideo,
		Criteria: "The product is shown in use, demonstrating its function or results on screen.",
		Method:   MethodLLM,
	},
	{
		ID: "st_before_after", Name: "Before / After Contrast",
		CheckSet: CheckSetCreativeIntelligence, SubCategory: SubStructure, Segment: SegmentFullVideo,
		Criteria: "A before/after or with/without contrast makes the product's effect visible.",
		Method:   MethodLLM,
	},
	{
		ID: "st_benefit_stack", Name: "Benefit Stacking",
		CheckSet: CheckSetCreativeIntelligence, SubCategory: SubStructure, Segment: SegmentFullVideo,
		Criteria: "Three or more distinct product benefits are presented in sequence, visually or verbally.",
		Method:   MethodLLM,
	},

	// ── Creative intelligence: accessibility ─────────────────────────────────
	{
		ID: "ax_captions", Name: "Captions Present",
		CheckSet: CheckSetCreativeIntelligence, SubCategory: SubAccessibility, Segment: SegmentFullVideo,
		Criteria: "Spoken dialogue is captioned on screen, making the message accessible with sound off.",
		Method:   MethodLLM,
	},
	{
		ID: "ax_text_contrast", Name: "Readable Text Contrast",
		CheckSet: CheckSetCreativeIntelligence, SubCategory: SubAccessibility, Segment: SegmentFullVideo,
		Criteria: "On-screen text maintains sufficient contrast against its background to be readable on small screens.",
		Method:   MethodLLM,
	},
	{
		ID: "ax_no_flash", Name: "No Rapid Flashing",
		CheckSet: CheckSetCreativeIntelligence, SubCategory: SubAccessibility, Segment: SegmentFullVideo,
		Criteria: "The video avoids strobing or rapid flashing sequences exceeding three flashes per second.",
		Method:   MethodLLM,
	},
}
